package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

const termColumns = `id, name, start_date, end_date, banner_code, created_at`

// TermRepository provides persistence for academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository creates a new term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID loads a term by id.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	var term models.Term
	if err := r.db.GetContext(ctx, &term, `SELECT `+termColumns+` FROM terms WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindCurrent returns the term whose date range contains at. When ranges overlap the latest start wins.
func (r *TermRepository) FindCurrent(ctx context.Context, at time.Time) (*models.Term, error) {
	const query = `SELECT ` + termColumns + ` FROM terms WHERE start_date <= $1::date AND end_date >= $1::date ORDER BY start_date DESC LIMIT 1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, at.UTC().Format("2006-01-02")); err != nil {
		return nil, err
	}
	return &term, nil
}

// List returns every term, most recent first.
func (r *TermRepository) List(ctx context.Context) ([]models.Term, error) {
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, `SELECT `+termColumns+` FROM terms ORDER BY start_date DESC`); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// Ensure inserts the term unless its banner code already exists, then returns the stored row.
func (r *TermRepository) Ensure(ctx context.Context, term *models.Term) (*models.Term, error) {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	if term.CreatedAt.IsZero() {
		term.CreatedAt = time.Now().UTC()
	}

	const insert = `INSERT INTO terms (id, name, start_date, end_date, banner_code, created_at) VALUES (:id, :name, :start_date, :end_date, :banner_code, :created_at) ON CONFLICT (banner_code) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, r.db, insert, term); err != nil {
		return nil, fmt.Errorf("ensure term: %w", err)
	}

	var stored models.Term
	if err := r.db.GetContext(ctx, &stored, `SELECT `+termColumns+` FROM terms WHERE banner_code = $1`, term.BannerCode); err != nil {
		return nil, fmt.Errorf("load ensured term: %w", err)
	}
	return &stored, nil
}
