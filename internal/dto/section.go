package dto

// CreateSectionRequest creates one section. An empty Name is generated from the type prefix;
// an empty SectionTypeID uses the default lecture type.
type CreateSectionRequest struct {
	CourseID          string  `json:"courseId" validate:"required"`
	SectionTypeID     string  `json:"sectionTypeId"`
	Name              string  `json:"name" validate:"omitempty,max=32"`
	EstimatedCapacity int     `json:"estimatedCapacity" validate:"min=0"`
	InstructorID      *string `json:"instructorId"`
	NRC               *string `json:"nrc" validate:"omitempty,max=32"`
}

// GenerateSectionsRequest creates sections from a course's demand. Zero values fall back
// to the course's declared number of sections and section size.
type GenerateSectionsRequest struct {
	CourseID       string `json:"courseId" validate:"required"`
	SectionsNumber int    `json:"sectionsNumber" validate:"min=0,max=99"`
	SectionSize    int    `json:"sectionSize" validate:"min=0"`
}
