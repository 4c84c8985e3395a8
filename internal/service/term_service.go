package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type termRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindCurrent(ctx context.Context, at time.Time) (*models.Term, error)
	List(ctx context.Context) ([]models.Term, error)
	Ensure(ctx context.Context, term *models.Term) (*models.Term, error)
}

// TermService resolves academic terms and synthesizes the current one when missing.
type TermService struct {
	repo   termRepository
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, logger: logger, now: time.Now}
}

// SynthesizeTerm derives the term for at: January to June yields term 1 (March 1 to July 30),
// July to December yields term 2 (August 1 to December 30).
func SynthesizeTerm(at time.Time) models.Term {
	year := at.Year()
	if at.Month() <= time.June {
		return models.Term{
			Name:       fmt.Sprintf("1° Semestre %d", year),
			StartDate:  time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(year, time.July, 30, 0, 0, 0, 0, time.UTC),
			BannerCode: fmt.Sprintf("%d-1", year),
		}
	}
	return models.Term{
		Name:       fmt.Sprintf("2° Semestre %d", year),
		StartDate:  time.Date(year, time.August, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(year, time.December, 30, 0, 0, 0, 0, time.UTC),
		BannerCode: fmt.Sprintf("%d-2", year),
	}
}

// Current returns the term containing now, persisting a synthesized one if none exists.
func (s *TermService) Current(ctx context.Context) (*models.Term, error) {
	now := s.now()

	term, err := s.repo.FindCurrent(ctx, now)
	if err == nil {
		return term, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current term")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	synth := SynthesizeTerm(now)
	stored, err := s.repo.Ensure(ctx, &synth)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to synthesize current term")
	}
	s.logger.Info("current term synthesized", zap.String("term_id", stored.ID), zap.String("banner_code", stored.BannerCode))
	return stored, nil
}

// Resolve loads termID, or the current term when termID is empty.
func (s *TermService) Resolve(ctx context.Context, termID string) (*models.Term, error) {
	if termID == "" {
		return s.Current(ctx)
	}
	term, err := s.repo.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("term '%s' not found", termID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// List returns every known term.
func (s *TermService) List(ctx context.Context) ([]models.Term, error) {
	terms, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}
