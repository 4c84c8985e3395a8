package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Constraint names from the schema that services translate into domain outcomes.
const (
	ConstraintPlacementRoomSlot = "placements_room_slot_key"
	ConstraintSectionName       = "sections_course_type_name_key"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique violation on constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != pgUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
