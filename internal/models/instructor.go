package models

import (
	"strings"

	"github.com/lib/pq"
)

// Instructor is a teacher who may be assigned to sections.
type Instructor struct {
	ID                 string         `db:"id" json:"id"`
	RUT                string         `db:"rut" json:"rut"`
	Name               string         `db:"name" json:"name"`
	IsAvailable        bool           `db:"is_available" json:"is_available"`
	MaxSectionsPerWeek int            `db:"max_sections_per_week" json:"max_sections_per_week"`
	CourseOffer        pq.StringArray `db:"course_offer" json:"course_offer"`
	Availability       pq.StringArray `db:"availability" json:"availability"`
}

// Offers reports whether the instructor is qualified for courseCode.
func (i Instructor) Offers(courseCode string) bool {
	for _, code := range i.CourseOffer {
		if strings.EqualFold(strings.TrimSpace(code), strings.TrimSpace(courseCode)) {
			return true
		}
	}
	return false
}

// AvailableAt reports whether the declared windows include the slot.
// An instructor with no declared windows is treated as available everywhere.
func (i Instructor) AvailableAt(day Day, block string) bool {
	if len(i.Availability) == 0 {
		return true
	}
	want := SlotKey(day, block)
	for _, raw := range i.Availability {
		slot := strings.ToUpper(strings.TrimSpace(raw))
		if idx := strings.LastIndex(slot, "-"); idx > 0 {
			if d, ok := ParseDay(slot[:idx]); ok {
				slot = SlotKey(d, slot[idx+1:])
			}
		}
		if slot == want {
			return true
		}
	}
	return false
}
