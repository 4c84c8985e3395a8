package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

const instructorColumns = `id, rut, name, is_available, max_sections_per_week, course_offer, availability`

// InstructorRepository reads instructors.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new instructor repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// FindByID loads an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	var inst models.Instructor
	if err := r.db.GetContext(ctx, &inst, `SELECT `+instructorColumns+` FROM instructors WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

// FindByRUT loads an instructor by RUT.
func (r *InstructorRepository) FindByRUT(ctx context.Context, rut string) (*models.Instructor, error) {
	var inst models.Instructor
	if err := r.db.GetContext(ctx, &inst, `SELECT `+instructorColumns+` FROM instructors WHERE rut = $1`, rut); err != nil {
		return nil, err
	}
	return &inst, nil
}

// List returns every instructor ordered by name.
func (r *InstructorRepository) List(ctx context.Context) ([]models.Instructor, error) {
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, `SELECT `+instructorColumns+` FROM instructors ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}
