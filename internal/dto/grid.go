package dto

// GridQuery selects a career semester of a term. A nil Depth uses the configured maximum.
type GridQuery struct {
	TermID   string `form:"termId" json:"termId"`
	Career   string `form:"career" json:"career" validate:"required"`
	Semester int    `form:"semester" json:"semester" validate:"required,min=1"`
	Depth    *int   `form:"depth" json:"depth" validate:"omitempty,min=0"`
}
