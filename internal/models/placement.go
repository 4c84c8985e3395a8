package models

import "time"

// Placement binds a section to one (term, time block, room) cell.
type Placement struct {
	ID          string    `db:"id" json:"id"`
	TermID      string    `db:"term_id" json:"term_id"`
	TimeBlockID string    `db:"time_block_id" json:"time_block_id"`
	RoomID      string    `db:"room_id" json:"room_id"`
	SectionID   string    `db:"section_id" json:"section_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PlacementDetail is a placement joined with everything the checker and the grid read.
type PlacementDetail struct {
	Placement
	Day               Day     `db:"day" json:"day"`
	BlockName         string  `db:"block_name" json:"block_name"`
	RoomName          string  `db:"room_name" json:"room_name"`
	RoomSite          string  `db:"room_site" json:"room_site"`
	CourseID          string  `db:"course_id" json:"course_id"`
	CourseCode        string  `db:"course_code" json:"course_code"`
	SectionName       string  `db:"section_name" json:"section_name"`
	CareerID          string  `db:"career_id" json:"career_id"`
	CareerCode        string  `db:"career_code" json:"career_code"`
	SemesterNumber    int     `db:"semester_number" json:"semester_number"`
	InstructorID      *string `db:"instructor_id" json:"instructor_id,omitempty"`
	InstructorRUT     *string `db:"instructor_rut" json:"instructor_rut,omitempty"`
	InstructorName    *string `db:"instructor_name" json:"instructor_name,omitempty"`
	EstimatedCapacity int     `db:"estimated_capacity" json:"estimated_capacity"`
}

// SectionLabel renders the section as "COURSE-NAME".
func (p PlacementDetail) SectionLabel() string {
	return p.CourseCode + "-" + p.SectionName
}

// Instructor returns the assigned instructor id, or "".
func (p PlacementDetail) Instructor() string {
	if p.InstructorID == nil {
		return ""
	}
	return *p.InstructorID
}
