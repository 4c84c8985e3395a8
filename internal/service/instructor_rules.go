package service

import (
	"strings"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/pkg/config"
)

// RuleContext is what a rule sees when deciding whether an instructor may teach.
type RuleContext struct {
	Instructor models.Instructor
	CourseCode string
	CareerCode string
}

// InstructorRule vetoes instructor candidates for specific contexts.
type InstructorRule interface {
	Allows(rc RuleContext) bool
}

// InstructorRules passes a candidate only when every rule allows it.
type InstructorRules []InstructorRule

// Allows implements InstructorRule.
func (rs InstructorRules) Allows(rc RuleContext) bool {
	for _, r := range rs {
		if !r.Allows(rc) {
			return false
		}
	}
	return true
}

type restrictionKey struct {
	rut    string
	course string
}

// CareerRestrictionTable limits (instructor, course) pairs to named careers.
// Pairs absent from the table are unrestricted.
type CareerRestrictionTable struct {
	allowed map[restrictionKey]map[string]struct{}
}

// NewCareerRestrictionTable indexes restriction rows. Rows for the same pair are merged.
func NewCareerRestrictionTable(rows []config.CareerRestriction) *CareerRestrictionTable {
	t := &CareerRestrictionTable{allowed: make(map[restrictionKey]map[string]struct{})}
	for _, row := range rows {
		key := restrictionKey{rut: normalizeCode(row.InstructorRUT), course: normalizeCode(row.CourseCode)}
		careers, ok := t.allowed[key]
		if !ok {
			careers = make(map[string]struct{})
			t.allowed[key] = careers
		}
		for _, career := range row.AllowedCareers {
			careers[normalizeCode(career)] = struct{}{}
		}
	}
	return t
}

// Allows implements InstructorRule.
func (t *CareerRestrictionTable) Allows(rc RuleContext) bool {
	if t == nil {
		return true
	}
	careers, ok := t.allowed[restrictionKey{rut: normalizeCode(rc.Instructor.RUT), course: normalizeCode(rc.CourseCode)}]
	if !ok {
		return true
	}
	_, allowed := careers[normalizeCode(rc.CareerCode)]
	return allowed
}

// Len returns the number of restricted pairs.
func (t *CareerRestrictionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.allowed)
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
