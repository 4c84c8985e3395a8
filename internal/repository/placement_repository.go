package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

const placementDetailQuery = `SELECT p.id, p.term_id, p.time_block_id, p.room_id, p.section_id, p.created_at,
	tb.day, tb.name AS block_name, r.name AS room_name, r.site AS room_site,
	c.id AS course_id, c.code AS course_code, s.name AS section_name,
	ca.id AS career_id, ca.code AS career_code, se.number AS semester_number,
	s.instructor_id, i.rut AS instructor_rut, i.name AS instructor_name, s.estimated_capacity
FROM placements p
JOIN time_blocks tb ON tb.id = p.time_block_id
JOIN rooms r ON r.id = p.room_id
JOIN sections s ON s.id = p.section_id
JOIN courses c ON c.id = s.course_id
JOIN semesters se ON se.id = c.semester_id
JOIN careers ca ON ca.id = se.career_id
LEFT JOIN instructors i ON i.id = s.instructor_id`

// PlacementRepository persists placements ("asignaciones de horario").
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository creates a new placement repository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

func (r *PlacementRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListDetails returns joined placements, filtered to termID when it is not empty.
func (r *PlacementRepository) ListDetails(ctx context.Context, termID string) ([]models.PlacementDetail, error) {
	query := placementDetailQuery
	var args []interface{}
	if termID != "" {
		query += ` WHERE p.term_id = $1`
		args = append(args, termID)
	}
	query += ` ORDER BY p.term_id, tb.day, tb.name, r.name`

	var placements []models.PlacementDetail
	if err := r.db.SelectContext(ctx, &placements, query, args...); err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	return placements, nil
}

// FindByCell loads the placement holding a room in a (term, block) cell.
func (r *PlacementRepository) FindByCell(ctx context.Context, termID, timeBlockID, roomID string) (*models.PlacementDetail, error) {
	var placement models.PlacementDetail
	query := placementDetailQuery + ` WHERE p.term_id = $1 AND p.time_block_id = $2 AND p.room_id = $3`
	if err := r.db.GetContext(ctx, &placement, query, termID, timeBlockID, roomID); err != nil {
		return nil, fmt.Errorf("find placement by cell: %w", err)
	}
	return &placement, nil
}

// Create inserts a placement. Room-slot collisions surface as a unique violation.
func (r *PlacementRepository) Create(ctx context.Context, exec sqlx.ExtContext, placement *models.Placement) error {
	if placement.ID == "" {
		placement.ID = uuid.NewString()
	}
	if placement.CreatedAt.IsZero() {
		placement.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO placements (id, term_id, time_block_id, room_id, section_id, created_at) VALUES (:id, :term_id, :time_block_id, :room_id, :section_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, placement); err != nil {
		return fmt.Errorf("create placement: %w", err)
	}
	return nil
}

// UpdateRoom moves a placement to another room.
func (r *PlacementRepository) UpdateRoom(ctx context.Context, exec sqlx.ExtContext, id, roomID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `UPDATE placements SET room_id = $1 WHERE id = $2`, roomID, id); err != nil {
		return fmt.Errorf("update placement room: %w", err)
	}
	return nil
}

// Delete removes a placement by id.
func (r *PlacementRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM placements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete placement: %w", err)
	}
	return nil
}

// DeleteByTerm removes every placement of a term and returns how many were deleted.
func (r *PlacementRepository) DeleteByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM placements WHERE term_id = $1`, termID)
	if err != nil {
		return 0, fmt.Errorf("delete placements by term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete placements by term: %w", err)
	}
	return affected, nil
}

// DeleteBySection removes every placement of a section and returns how many were deleted.
func (r *PlacementRepository) DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM placements WHERE section_id = $1`, sectionID)
	if err != nil {
		return 0, fmt.Errorf("delete placements by section: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete placements by section: %w", err)
	}
	return affected, nil
}

// CountBySection counts placements referencing a section.
func (r *PlacementRepository) CountBySection(ctx context.Context, sectionID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM placements WHERE section_id = $1`, sectionID); err != nil {
		return 0, fmt.Errorf("count placements by section: %w", err)
	}
	return total, nil
}
