package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

const timeBlockColumns = `id, name, day, start_time, end_time`

// TimeBlockRepository reads the seeded block catalog.
type TimeBlockRepository struct {
	db *sqlx.DB
}

// NewTimeBlockRepository creates a new time block repository.
func NewTimeBlockRepository(db *sqlx.DB) *TimeBlockRepository {
	return &TimeBlockRepository{db: db}
}

// FindByDayName loads the block named name on day.
func (r *TimeBlockRepository) FindByDayName(ctx context.Context, day models.Day, name string) (*models.TimeBlock, error) {
	const query = `SELECT ` + timeBlockColumns + ` FROM time_blocks WHERE day = $1 AND UPPER(name) = UPPER($2)`
	var block models.TimeBlock
	if err := r.db.GetContext(ctx, &block, query, string(day), name); err != nil {
		return nil, err
	}
	return &block, nil
}

// List returns every block ordered by start time then name.
func (r *TimeBlockRepository) List(ctx context.Context) ([]models.TimeBlock, error) {
	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, `SELECT `+timeBlockColumns+` FROM time_blocks ORDER BY start_time ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("list time blocks: %w", err)
	}
	return blocks, nil
}
