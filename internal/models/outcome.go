package models

import "strings"

// OutcomeStatus tags a PlacementOutcome for transport.
type OutcomeStatus string

const (
	OutcomeAccepted             OutcomeStatus = "ACCEPTED"
	OutcomeAcceptedWithWarnings OutcomeStatus = "ACCEPTED_WITH_WARNINGS"
	OutcomeRejected             OutcomeStatus = "REJECTED"
)

// ConflictKind enumerates hard reasons for rejecting a placement.
type ConflictKind string

const (
	ConflictNotFound   ConflictKind = "NOT_FOUND"
	ConflictRoom       ConflictKind = "ROOM_CONFLICT"
	ConflictInstructor ConflictKind = "INSTRUCTOR_CONFLICT"
)

// WarningKind enumerates soft advisories attached to an accepted placement.
type WarningKind string

const (
	WarningCapacity      WarningKind = "CAPACITY"
	WarningLoad          WarningKind = "INSTRUCTOR_LOAD"
	WarningWindow        WarningKind = "INSTRUCTOR_WINDOW"
	WarningQualification WarningKind = "INSTRUCTOR_QUALIFICATION"
)

// Conflict explains why a proposal was rejected.
type Conflict struct {
	Kind    ConflictKind `json:"kind"`
	Message string       `json:"message"`

	// Populated for NOT_FOUND.
	EntityKind string `json:"entity_kind,omitempty"`
	Identifier string `json:"identifier,omitempty"`

	// Populated for ROOM_CONFLICT and INSTRUCTOR_CONFLICT.
	OccupyingSectionID  string `json:"occupying_section_id,omitempty"`
	OccupyingSection    string `json:"occupying_section,omitempty"`
	ExistingPlacementID string `json:"existing_placement_id,omitempty"`
	InstructorID        string `json:"instructor_id,omitempty"`
	Room                string `json:"room,omitempty"`
	Day                 Day    `json:"day,omitempty"`
	Block               string `json:"block,omitempty"`
}

// Warning is a non-blocking advisory.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// PlacementOutcome is one of Accepted, AcceptedWithWarnings or Rejected.
type PlacementOutcome interface {
	Status() OutcomeStatus
	placementOutcome()
}

// Accepted means the placement was recorded with nothing to report.
type Accepted struct {
	Placement PlacementDetail `json:"placement"`
}

// AcceptedWithWarnings means the placement was recorded and soft issues were found.
type AcceptedWithWarnings struct {
	Placement PlacementDetail `json:"placement"`
	Warnings  []Warning       `json:"warnings"`
}

// Rejected means nothing was written.
type Rejected struct {
	Conflicts []Conflict `json:"conflicts"`
}

func (Accepted) Status() OutcomeStatus             { return OutcomeAccepted }
func (AcceptedWithWarnings) Status() OutcomeStatus { return OutcomeAcceptedWithWarnings }
func (Rejected) Status() OutcomeStatus             { return OutcomeRejected }

func (Accepted) placementOutcome()             {}
func (AcceptedWithWarnings) placementOutcome() {}
func (Rejected) placementOutcome()             {}

// NewAccepted picks the accepted variant based on whether warnings exist.
func NewAccepted(p PlacementDetail, warnings []Warning) PlacementOutcome {
	if len(warnings) == 0 {
		return Accepted{Placement: p}
	}
	return AcceptedWithWarnings{Placement: p, Warnings: warnings}
}

// OnlyNotFound reports whether every conflict is a missing reference.
func (r Rejected) OnlyNotFound() bool {
	if len(r.Conflicts) == 0 {
		return false
	}
	for _, c := range r.Conflicts {
		if c.Kind != ConflictNotFound {
			return false
		}
	}
	return true
}

// Has reports whether any conflict has the given kind.
func (r Rejected) Has(kind ConflictKind) bool {
	for _, c := range r.Conflicts {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// Message joins the conflict messages.
func (r Rejected) Message() string {
	parts := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		parts = append(parts, c.Message)
	}
	return strings.Join(parts, "; ")
}

// NotFoundConflict names a missing entity and the identifier that was requested.
func NotFoundConflict(entity, identifier string) Conflict {
	return Conflict{
		Kind:       ConflictNotFound,
		Message:    entity + " '" + identifier + "' not found",
		EntityKind: entity,
		Identifier: identifier,
	}
}

// ClearResult reports a bulk removal.
type ClearResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
	TermID       string `json:"term_id"`
	Term         string `json:"term"`
}
