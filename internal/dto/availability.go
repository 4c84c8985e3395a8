package dto

// AvailableRoomsQuery asks for free rooms at a slot. Site falls back to the configured default.
type AvailableRoomsQuery struct {
	Day    string `form:"day" json:"day" validate:"required"`
	Block  string `form:"block" json:"block" validate:"required"`
	TermID string `form:"termId" json:"termId"`
	Site   string `form:"site" json:"site"`
}

// AvailableInstructorsQuery asks for instructors who may teach a course at a slot.
type AvailableInstructorsQuery struct {
	CourseCode string `form:"course" json:"course" validate:"required"`
	Career     string `form:"career" json:"career"`
	Day        string `form:"day" json:"day" validate:"required"`
	Block      string `form:"block" json:"block" validate:"required"`
	TermID     string `form:"termId" json:"termId"`
}
