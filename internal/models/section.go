package models

import "time"

// Section is one offered instance ("paralelo") of a course.
type Section struct {
	ID                string    `db:"id" json:"id"`
	CourseID          string    `db:"course_id" json:"course_id"`
	SectionTypeID     string    `db:"section_type_id" json:"section_type_id"`
	Name              string    `db:"name" json:"name"`
	EstimatedCapacity int       `db:"estimated_capacity" json:"estimated_capacity"`
	InstructorID      *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	NRC               *string   `db:"nrc" json:"nrc,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// SectionDetail joins the catalog around a section.
type SectionDetail struct {
	Section
	CourseCode      string  `db:"course_code" json:"course_code"`
	CourseName      string  `db:"course_name" json:"course_name"`
	SectionTypeName string  `db:"section_type_name" json:"section_type_name"`
	CareerID        string  `db:"career_id" json:"career_id"`
	CareerCode      string  `db:"career_code" json:"career_code"`
	SemesterNumber  int     `db:"semester_number" json:"semester_number"`
	InstructorRUT   *string `db:"instructor_rut" json:"instructor_rut,omitempty"`
	InstructorName  *string `db:"instructor_name" json:"instructor_name,omitempty"`
}

// Label renders "COURSE-NAME", e.g. "MATH101-C1".
func (s SectionDetail) Label() string {
	return s.CourseCode + "-" + s.Name
}
