package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	"github.com/noah-isme/horario-api/pkg/config"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type roomLister interface {
	ListBySite(ctx context.Context, site string) ([]models.Room, error)
}

type instructorLister interface {
	List(ctx context.Context) ([]models.Instructor, error)
}

// AvailabilityService answers which rooms and instructors are free at a slot.
type AvailabilityService struct {
	rooms       roomLister
	instructors instructorLister
	blocks      timeBlockReader
	terms       termResolver
	index       *repository.PlacementIndex
	rules       InstructorRule
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         config.SchedulerConfig
	unassigned  map[string]struct{}
}

// NewAvailabilityService constructs the resolver. A nil rule allows every candidate.
func NewAvailabilityService(rooms roomLister, instructors instructorLister, blocks timeBlockReader, terms termResolver, index *repository.PlacementIndex, rules InstructorRule, validate *validator.Validate, logger *zap.Logger, cfg config.SchedulerConfig) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules == nil {
		rules = InstructorRules{}
	}
	return &AvailabilityService{
		rooms:       rooms,
		instructors: instructors,
		blocks:      blocks,
		terms:       terms,
		index:       index,
		rules:       rules,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		unassigned:  unassignedSet(cfg.UnassignedInstructors),
	}
}

// AvailableRooms lists rooms of a site with no placement at the (term, day, block) cell, ordered by name.
func (s *AvailabilityService) AvailableRooms(ctx context.Context, q dto.AvailableRoomsQuery) ([]models.Room, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	block, term, err := s.slot(ctx, q.Day, q.Block, q.TermID)
	if err != nil {
		return nil, err
	}

	site := strings.TrimSpace(q.Site)
	if site == "" {
		site = s.cfg.DefaultSite
	}
	rooms, err := s.rooms.ListBySite(ctx, site)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}

	occupied := make(map[string]struct{})
	for _, p := range s.index.InCell(term.ID, block.ID) {
		occupied[p.RoomID] = struct{}{}
	}

	free := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if _, taken := occupied[room.ID]; !taken {
			free = append(free, room)
		}
	}
	sort.SliceStable(free, func(i, j int) bool { return free[i].Name < free[j].Name })
	return free, nil
}

// AvailableInstructors filters instructors in order: available flag, course offer,
// not already teaching at the slot in any loaded schedule, then the rule table.
func (s *AvailabilityService) AvailableInstructors(ctx context.Context, q dto.AvailableInstructorsQuery) ([]models.Instructor, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	block, term, err := s.slot(ctx, q.Day, q.Block, q.TermID)
	if err != nil {
		return nil, err
	}

	instructors, err := s.instructors.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}

	busy := s.busyInstructors(term.ID, block.ID)

	result := make([]models.Instructor, 0)
	for _, inst := range instructors {
		if s.isUnassigned(inst) {
			continue
		}
		if !inst.IsAvailable {
			continue
		}
		if !inst.Offers(q.CourseCode) {
			continue
		}
		if _, taken := busy[inst.ID]; taken {
			continue
		}
		if !s.rules.Allows(RuleContext{Instructor: inst, CourseCode: q.CourseCode, CareerCode: q.Career}) {
			continue
		}
		result = append(result, inst)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	s.logger.Debug("instructor availability resolved",
		zap.String("course", q.CourseCode),
		zap.String("career", q.Career),
		zap.String("slot", block.Slot()),
		zap.Int("candidates", len(instructors)),
		zap.Int("available", len(result)),
	)
	return result, nil
}

// busyInstructors collects instructors teaching at blockID. The global scope spans every loaded term.
func (s *AvailabilityService) busyInstructors(termID, blockID string) map[string]struct{} {
	var placements []models.PlacementDetail
	if s.cfg.InstructorScope == config.ScopeTerm {
		placements = s.index.InCell(termID, blockID)
	} else {
		placements = s.index.AcrossSchedules(blockID)
	}

	busy := make(map[string]struct{}, len(placements))
	for _, p := range placements {
		if inst := p.Instructor(); inst != "" {
			busy[inst] = struct{}{}
		}
	}
	return busy
}

func (s *AvailabilityService) isUnassigned(inst models.Instructor) bool {
	if _, ok := s.unassigned[strings.ToUpper(strings.TrimSpace(inst.RUT))]; ok {
		return true
	}
	_, ok := s.unassigned[strings.ToUpper(strings.TrimSpace(inst.Name))]
	return ok
}

func (s *AvailabilityService) slot(ctx context.Context, dayRaw, blockName, termID string) (*models.TimeBlock, *models.Term, error) {
	day, ok := models.ParseDay(dayRaw)
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("day '%s' not found", dayRaw))
	}
	block, err := s.blocks.FindByDayName(ctx, day, blockName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("time block '%s' not found", models.SlotKey(day, blockName)))
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}
	term, err := s.terms.Resolve(ctx, termID)
	if err != nil {
		return nil, nil, err
	}
	return block, term, nil
}
