package models

import "strings"

// Career is an academic program.
type Career struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Semester is a level within a career.
type Semester struct {
	ID       string `db:"id" json:"id"`
	CareerID string `db:"career_id" json:"career_id"`
	Number   int    `db:"number" json:"number"`
}

// Course is offered in one semester. Demand and SuggestedRoom are advisory.
type Course struct {
	ID             string  `db:"id" json:"id"`
	Code           string  `db:"code" json:"code"`
	Name           string  `db:"name" json:"name"`
	SemesterID     string  `db:"semester_id" json:"semester_id"`
	Demand         *int    `db:"demand" json:"demand,omitempty"`
	SuggestedRoom  *string `db:"suggested_room" json:"suggested_room,omitempty"`
	SectionsNumber int     `db:"sections_number" json:"sections_number"`
	SectionSize    int     `db:"section_size" json:"section_size"`
}

// SectionType classifies sections: lecture, lab, tutorial, workshop.
type SectionType struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Prefix string `db:"prefix" json:"prefix"`
}

var sectionTypePrefixes = map[string]string{
	"CATEDRA":     "C",
	"CÁTEDRA":     "C",
	"LABORATORIO": "L",
	"AYUDANTIA":   "A",
	"AYUDANTÍA":   "A",
	"TALLER":      "T",
}

// NamePrefix is the letter used for generated section names.
func (t SectionType) NamePrefix() string {
	if p := strings.TrimSpace(t.Prefix); p != "" {
		return strings.ToUpper(p)
	}
	key := strings.ToUpper(strings.TrimSpace(t.Name))
	if p, ok := sectionTypePrefixes[key]; ok {
		return p
	}
	for _, r := range key {
		return string(r)
	}
	return "S"
}
