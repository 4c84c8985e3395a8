package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// CareerRestriction limits where an instructor may teach a given course.
type CareerRestriction struct {
	InstructorRUT  string   `mapstructure:"instructor_rut"`
	CourseCode     string   `mapstructure:"course_code"`
	AllowedCareers []string `mapstructure:"allowed_careers"`
}

type rulesFile struct {
	CareerRestrictions []CareerRestriction `mapstructure:"career_restrictions"`
}

// DefaultCareerRestrictions mirrors the institution's standing restriction table.
func DefaultCareerRestrictions() []CareerRestriction {
	return []CareerRestriction{
		{InstructorRUT: "128401768", CourseCode: "ECIN-00100", AllowedCareers: []string{"ITI"}},
		{InstructorRUT: "128401768", CourseCode: "ECIN-00115", AllowedCareers: []string{"ITI"}},
		{InstructorRUT: "128401768", CourseCode: "ECIN-08606", AllowedCareers: []string{"ICCI"}},
	}
}

// LoadCareerRestrictions reads a JSON or YAML rule file. An empty path yields the default table.
func LoadCareerRestrictions(path string) ([]CareerRestriction, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCareerRestrictions(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var parsed rulesFile
	if err := v.Unmarshal(&parsed); err != nil {
		return nil, fmt.Errorf("decode rules file: %w", err)
	}

	for i, rule := range parsed.CareerRestrictions {
		if strings.TrimSpace(rule.InstructorRUT) == "" || strings.TrimSpace(rule.CourseCode) == "" {
			return nil, fmt.Errorf("career restriction %d: instructor_rut and course_code are required", i)
		}
	}

	return parsed.CareerRestrictions, nil
}
