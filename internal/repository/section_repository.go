package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

const sectionDetailQuery = `SELECT s.id, s.course_id, s.section_type_id, s.name, s.estimated_capacity, s.instructor_id, s.nrc, s.created_at,
	c.code AS course_code, c.name AS course_name, st.name AS section_type_name,
	ca.id AS career_id, ca.code AS career_code, se.number AS semester_number,
	i.rut AS instructor_rut, i.name AS instructor_name
FROM sections s
JOIN courses c ON c.id = s.course_id
JOIN semesters se ON se.id = c.semester_id
JOIN careers ca ON ca.id = se.career_id
JOIN section_types st ON st.id = s.section_type_id
LEFT JOIN instructors i ON i.id = s.instructor_id`

// SectionRepository persists sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new section repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a section with its catalog context.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	var section models.SectionDetail
	if err := r.db.GetContext(ctx, &section, sectionDetailQuery+` WHERE s.id = $1`, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindByCourseName loads the section of a course with a case-insensitive name. When several
// section types share the name the first type alphabetically wins.
func (r *SectionRepository) FindByCourseName(ctx context.Context, courseID, name string) (*models.SectionDetail, error) {
	var section models.SectionDetail
	query := sectionDetailQuery + ` WHERE s.course_id = $1 AND UPPER(s.name) = UPPER($2) ORDER BY st.name ASC LIMIT 1`
	if err := r.db.GetContext(ctx, &section, query, courseID, name); err != nil {
		return nil, err
	}
	return &section, nil
}

// ListByCourse returns the sections of a course ordered by type then name.
func (r *SectionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error) {
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, sectionDetailQuery+` WHERE s.course_id = $1 ORDER BY st.name ASC, s.name ASC`, courseID); err != nil {
		return nil, fmt.Errorf("list sections by course: %w", err)
	}
	return sections, nil
}

// ListByCourseType returns the sections sharing a course and type.
func (r *SectionRepository) ListByCourseType(ctx context.Context, exec sqlx.ExtContext, courseID, sectionTypeID string) ([]models.Section, error) {
	const query = `SELECT id, course_id, section_type_id, name, estimated_capacity, instructor_id, nrc, created_at FROM sections WHERE course_id = $1 AND section_type_id = $2 ORDER BY name ASC`
	var sections []models.Section
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sections, query, courseID, sectionTypeID); err != nil {
		return nil, fmt.Errorf("list sections by course type: %w", err)
	}
	return sections, nil
}

// Create inserts a section.
func (r *SectionRepository) Create(ctx context.Context, exec sqlx.ExtContext, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO sections (id, course_id, section_type_id, name, estimated_capacity, instructor_id, nrc, created_at) VALUES (:id, :course_id, :section_type_id, :name, :estimated_capacity, :instructor_id, :nrc, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// UpdateCapacity sets the estimated capacity of a section.
func (r *SectionRepository) UpdateCapacity(ctx context.Context, exec sqlx.ExtContext, id string, capacity int) error {
	if _, err := r.exec(exec).ExecContext(ctx, `UPDATE sections SET estimated_capacity = $1 WHERE id = $2`, capacity, id); err != nil {
		return fmt.Errorf("update section capacity: %w", err)
	}
	return nil
}

// SetInstructor assigns or clears (nil) the section's instructor.
func (r *SectionRepository) SetInstructor(ctx context.Context, exec sqlx.ExtContext, id string, instructorID *string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `UPDATE sections SET instructor_id = $1 WHERE id = $2`, instructorID, id); err != nil {
		return fmt.Errorf("set section instructor: %w", err)
	}
	return nil
}

// Delete removes a section by id.
func (r *SectionRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}
