package dto

import "github.com/noah-isme/horario-api/internal/models"

// AssignRequest proposes placing a section into a room at a (day, block) of a term.
// An empty TermID targets the current term.
type AssignRequest struct {
	SectionID string `json:"sectionId" validate:"required"`
	Room      string `json:"room" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Block     string `json:"block" validate:"required"`
	TermID    string `json:"termId"`
}

// AssignByCourseRequest places a section named by course code and section name. Career takes an id,
// code or name; Career and Semester only narrow the course lookup.
type AssignByCourseRequest struct {
	CourseCode  string `json:"courseCode" validate:"required"`
	SectionName string `json:"section" validate:"required"`
	Career      string `json:"career"`
	Semester    int    `json:"semester" validate:"gte=0"`
	Room        string `json:"room" validate:"required"`
	Day         string `json:"day" validate:"required"`
	Block       string `json:"block" validate:"required"`
	TermID      string `json:"termId"`
}

// UnassignRequest removes a placement by its natural key.
type UnassignRequest struct {
	SectionID string `form:"sectionId" json:"sectionId" validate:"required"`
	Room      string `form:"room" json:"room" validate:"required"`
	Day       string `form:"day" json:"day" validate:"required"`
	Block     string `form:"block" json:"block" validate:"required"`
	TermID    string `form:"termId" json:"termId"`
}

// MoveRoomRequest moves an existing placement to another room in the same slot.
type MoveRoomRequest struct {
	SectionID string `json:"sectionId" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Block     string `json:"block" validate:"required"`
	FromRoom  string `json:"fromRoom" validate:"required"`
	ToRoom    string `json:"toRoom" validate:"required"`
	TermID    string `json:"termId"`
}

// ReassignInstructorRequest sets the instructor of the section behind a placement.
// Instructor is a RUT; one of the configured "unassigned" values clears it.
type ReassignInstructorRequest struct {
	SectionID  string `json:"sectionId" validate:"required"`
	Day        string `json:"day" validate:"required"`
	Block      string `json:"block" validate:"required"`
	Room       string `json:"room" validate:"required"`
	Instructor string `json:"instructor" validate:"required"`
	TermID     string `json:"termId"`
}

// OutcomeResponse is the transport shape of a PlacementOutcome.
type OutcomeResponse struct {
	Status    models.OutcomeStatus    `json:"status"`
	Placement *models.PlacementDetail `json:"placement,omitempty"`
	Warnings  []models.Warning        `json:"warnings,omitempty"`
	Conflicts []models.Conflict       `json:"conflicts,omitempty"`
}

// NewOutcomeResponse flattens an outcome.
func NewOutcomeResponse(outcome models.PlacementOutcome) OutcomeResponse {
	switch o := outcome.(type) {
	case models.Accepted:
		p := o.Placement
		return OutcomeResponse{Status: o.Status(), Placement: &p}
	case models.AcceptedWithWarnings:
		p := o.Placement
		return OutcomeResponse{Status: o.Status(), Placement: &p, Warnings: o.Warnings}
	case models.Rejected:
		return OutcomeResponse{Status: o.Status(), Conflicts: o.Conflicts}
	default:
		return OutcomeResponse{}
	}
}
