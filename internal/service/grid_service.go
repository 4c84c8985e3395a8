package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	"github.com/noah-isme/horario-api/pkg/config"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type timeBlockLister interface {
	List(ctx context.Context) ([]models.TimeBlock, error)
}

type careerReader interface {
	FindCareer(ctx context.Context, ref string) (*models.Career, error)
}

const (
	firstLayerOpacity = 0.6
	layerOpacityStep  = 0.2
	minLayerOpacity   = 0.2
)

// GridService composes the layered schedule view. It only reads the index.
type GridService struct {
	blocks    timeBlockLister
	careers   careerReader
	terms     termResolver
	index     *repository.PlacementIndex
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.SchedulerConfig
}

// NewGridService constructs a grid service.
func NewGridService(blocks timeBlockLister, careers careerReader, terms termResolver, index *repository.PlacementIndex, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg config.SchedulerConfig) *GridService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridService{blocks: blocks, careers: careers, terms: terms, index: index, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// LayerOpacity returns the opacity of the layer depth semesters back: 0.6, 0.4, then 0.2 onwards.
func LayerOpacity(depth int) float64 {
	opacity := firstLayerOpacity - layerOpacityStep*float64(depth-1)
	if opacity < minLayerOpacity {
		return minLayerOpacity
	}
	return opacity
}

// LayeredGrid builds every (day, block) cell of a career semester with up to depth prior semesters behind it.
func (s *GridService) LayeredGrid(ctx context.Context, q dto.GridQuery) (*models.Grid, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grid query")
	}

	term, err := s.terms.Resolve(ctx, q.TermID)
	if err != nil {
		return nil, err
	}
	career, err := s.careers.FindCareer(ctx, q.Career)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("career '%s' not found", q.Career))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load career")
	}

	depth := s.cfg.LookbackMax
	if q.Depth != nil && *q.Depth < depth {
		depth = *q.Depth
	}
	if depth < 0 {
		depth = 0
	}

	// writes after this point bump the version; a grid built from older data lands under a dead key
	key := GridKey(term.ID, s.index.TermVersion(term.ID), career.ID, q.Semester, depth)
	var cached models.Grid
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	blocks, err := s.blocks.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time blocks")
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		if di, dj := blocks[i].Day.Index(), blocks[j].Day.Index(); di != dj {
			return di < dj
		}
		if !blocks[i].StartTime.Equal(blocks[j].StartTime) {
			return blocks[i].StartTime.Before(blocks[j].StartTime)
		}
		return blocks[i].Name < blocks[j].Name
	})

	type bucket struct {
		blockID  string
		semester int
	}
	grouped := make(map[bucket][]models.PlacementDetail)
	for _, p := range s.index.ByTerm(term.ID) {
		if p.CareerID != career.ID {
			continue
		}
		k := bucket{blockID: p.TimeBlockID, semester: p.SemesterNumber}
		grouped[k] = append(grouped[k], p)
	}

	grid := &models.Grid{
		TermID:   term.ID,
		CareerID: career.ID,
		Semester: q.Semester,
		Depth:    depth,
		Days:     models.Weekdays,
		Cells:    make([]models.Cell, 0, len(blocks)),
	}
	seen := make(map[string]struct{})
	for _, block := range blocks {
		if _, ok := seen[block.Name]; !ok {
			seen[block.Name] = struct{}{}
			grid.Blocks = append(grid.Blocks, block.Name)
		}

		current := grouped[bucket{blockID: block.ID, semester: q.Semester}]
		if current == nil {
			current = []models.PlacementDetail{}
		}
		cell := models.Cell{
			Day:       block.Day,
			Block:     block.Name,
			BlockID:   block.ID,
			StartTime: block.StartTime.Format("15:04"),
			EndTime:   block.EndTime.Format("15:04"),
			Current:   current,
		}
		for back := 1; back <= depth; back++ {
			semester := q.Semester - back
			if semester < 1 {
				break
			}
			placements := grouped[bucket{blockID: block.ID, semester: semester}]
			if len(placements) == 0 {
				continue
			}
			cell.Layers = append(cell.Layers, models.Layer{
				Depth:      back,
				Semester:   semester,
				Opacity:    LayerOpacity(back),
				Label:      fmt.Sprintf("Semestre %d (-%d)", semester, back),
				Placements: placements,
			})
		}
		grid.Cells = append(grid.Cells, cell)
	}
	sort.Strings(grid.Blocks)

	s.cache.Set(ctx, key, grid, s.cfg.GridCacheTTL)
	return grid, nil
}
