package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

// CatalogRepository reads careers, semesters, courses and section types.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindCourse loads a course by id.
func (r *CatalogRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, semester_id, demand, suggested_room, sections_number, section_size FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindCoursesByCode lists the courses carrying code. A non-empty career (id, code or name) and a
// positive semester number narrow the match; the rest comes back ordered by career code then semester.
func (r *CatalogRepository) FindCoursesByCode(ctx context.Context, code, career string, semester int) ([]models.Course, error) {
	query := `SELECT c.id, c.code, c.name, c.semester_id, c.demand, c.suggested_room, c.sections_number, c.section_size
FROM courses c
JOIN semesters se ON se.id = c.semester_id
JOIN careers ca ON ca.id = se.career_id
WHERE UPPER(c.code) = UPPER($1)`
	args := []interface{}{code}
	if career != "" {
		args = append(args, career)
		n := len(args)
		query += fmt.Sprintf(` AND (ca.id = $%d OR ca.code = $%d OR ca.name = $%d)`, n, n, n)
	}
	if semester > 0 {
		args = append(args, semester)
		query += fmt.Sprintf(` AND se.number = $%d`, len(args))
	}
	query += ` ORDER BY ca.code ASC, se.number ASC`

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("find courses by code: %w", err)
	}
	return courses, nil
}

// FindSectionType loads a section type by id.
func (r *CatalogRepository) FindSectionType(ctx context.Context, id string) (*models.SectionType, error) {
	var st models.SectionType
	if err := r.db.GetContext(ctx, &st, `SELECT id, name, prefix FROM section_types WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &st, nil
}

// FindSectionTypeByName loads a section type by case-insensitive name.
func (r *CatalogRepository) FindSectionTypeByName(ctx context.Context, name string) (*models.SectionType, error) {
	var st models.SectionType
	if err := r.db.GetContext(ctx, &st, `SELECT id, name, prefix FROM section_types WHERE UPPER(name) = UPPER($1)`, name); err != nil {
		return nil, err
	}
	return &st, nil
}

// FindCareer loads a career by id or code.
func (r *CatalogRepository) FindCareer(ctx context.Context, ref string) (*models.Career, error) {
	var career models.Career
	if err := r.db.GetContext(ctx, &career, `SELECT id, code, name FROM careers WHERE id = $1 OR code = $1 LIMIT 1`, ref); err != nil {
		return nil, err
	}
	return &career, nil
}
