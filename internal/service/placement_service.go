package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	"github.com/noah-isme/horario-api/pkg/config"
	"github.com/noah-isme/horario-api/pkg/database"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type placementStore interface {
	ListDetails(ctx context.Context, termID string) ([]models.PlacementDetail, error)
	Create(ctx context.Context, exec sqlx.ExtContext, placement *models.Placement) error
	UpdateRoom(ctx context.Context, exec sqlx.ExtContext, id, roomID string) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
	DeleteByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) (int64, error)
	FindByCell(ctx context.Context, termID, timeBlockID, roomID string) (*models.PlacementDetail, error)
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.SectionDetail, error)
}

type placementSections interface {
	sectionReader
	FindByCourseName(ctx context.Context, courseID, name string) (*models.SectionDetail, error)
	SetInstructor(ctx context.Context, exec sqlx.ExtContext, id string, instructorID *string) error
}

type courseFinder interface {
	FindCoursesByCode(ctx context.Context, code, career string, semester int) ([]models.Course, error)
}

type roomReader interface {
	FindByName(ctx context.Context, name string) (*models.Room, error)
}

type timeBlockReader interface {
	FindByDayName(ctx context.Context, day models.Day, name string) (*models.TimeBlock, error)
}

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	FindByRUT(ctx context.Context, rut string) (*models.Instructor, error)
}

type termResolver interface {
	Resolve(ctx context.Context, termID string) (*models.Term, error)
}

// Operation labels used for metrics and logs.
const (
	opAssign   = "assign"
	opMoveRoom = "move_room"
	opReassign = "reassign_instructor"
)

// PlacementServiceParams groups constructor dependencies.
type PlacementServiceParams struct {
	Placements  placementStore
	Sections    placementSections
	Courses     courseFinder
	Rooms       roomReader
	TimeBlocks  timeBlockReader
	Instructors instructorReader
	Terms       termResolver
	Index       *repository.PlacementIndex
	Tx          database.Transactor
	Gate        *WriteGate
	Cache       *CacheService
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      config.SchedulerConfig
}

// PlacementService is the conflict checker: it accepts or rejects placements and
// keeps the store and the in-memory index in step.
type PlacementService struct {
	placements  placementStore
	sections    placementSections
	courses     courseFinder
	rooms       roomReader
	blocks      timeBlockReader
	instructors instructorReader
	terms       termResolver
	index       *repository.PlacementIndex
	tx          database.Transactor
	gate        *WriteGate
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         config.SchedulerConfig
	unassigned  map[string]struct{}
}

// NewPlacementService constructs a PlacementService with sane defaults.
func NewPlacementService(params PlacementServiceParams) *PlacementService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	index := params.Index
	if index == nil {
		index = repository.NewPlacementIndex()
	}
	gate := params.Gate
	if gate == nil {
		gate = NewWriteGate()
	}
	cfg := params.Config
	if cfg.CapacityWarnRatio <= 0 {
		cfg.CapacityWarnRatio = 1
	}
	if cfg.LoadWarnRatio <= 0 {
		cfg.LoadWarnRatio = 0.8
	}
	return &PlacementService{
		placements:  params.Placements,
		sections:    params.Sections,
		courses:     params.Courses,
		rooms:       params.Rooms,
		blocks:      params.TimeBlocks,
		instructors: params.Instructors,
		terms:       params.Terms,
		index:       index,
		tx:          params.Tx,
		gate:        gate,
		cache:       params.Cache,
		metrics:     params.Metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		unassigned:  unassignedSet(cfg.UnassignedInstructors),
	}
}

func unassignedSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToUpper(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}

// isUnassignedValue reports whether v is one of the sentinel "no instructor" values.
func (s *PlacementService) isUnassignedValue(v string) bool {
	_, ok := s.unassigned[strings.ToUpper(strings.TrimSpace(v))]
	return ok
}

// assignedInstructor returns the section's instructor id, or "" for none or a sentinel.
func (s *PlacementService) assignedInstructor(section *models.SectionDetail) string {
	if section.InstructorID == nil || *section.InstructorID == "" {
		return ""
	}
	if section.InstructorRUT != nil && s.isUnassignedValue(*section.InstructorRUT) {
		return ""
	}
	if section.InstructorName != nil && s.isUnassignedValue(*section.InstructorName) {
		return ""
	}
	return *section.InstructorID
}

type resolvedSlot struct {
	section *models.SectionDetail
	room    *models.Room
	block   *models.TimeBlock
	term    *models.Term
}

// resolve looks up every reference of a proposal and returns one NotFound conflict per missing entity.
func (s *PlacementService) resolve(ctx context.Context, sectionID, roomName, dayRaw, blockName, termID string) (resolvedSlot, []models.Conflict, error) {
	var (
		out       resolvedSlot
		conflicts []models.Conflict
	)

	section, err := s.sections.FindByID(ctx, sectionID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		conflicts = append(conflicts, models.NotFoundConflict("section", sectionID))
	case err != nil:
		return out, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	default:
		out.section = section
	}

	room, err := s.rooms.FindByName(ctx, roomName)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		conflicts = append(conflicts, models.NotFoundConflict("room", roomName))
	case err != nil:
		return out, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	default:
		out.room = room
	}

	day, ok := models.ParseDay(dayRaw)
	if !ok {
		conflicts = append(conflicts, models.NotFoundConflict("time block", strings.ToUpper(dayRaw)+"-"+blockName))
	} else {
		block, err := s.blocks.FindByDayName(ctx, day, blockName)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			conflicts = append(conflicts, models.NotFoundConflict("time block", models.SlotKey(day, blockName)))
		case err != nil:
			return out, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
		default:
			out.block = block
		}
	}

	term, err := s.terms.Resolve(ctx, termID)
	switch {
	case errors.Is(err, appErrors.ErrNotFound):
		conflicts = append(conflicts, models.NotFoundConflict("term", termID))
	case err != nil:
		return out, nil, err
	default:
		out.term = term
	}

	return out, conflicts, nil
}

// Assign proposes a new placement. Hard conflicts come back as a Rejected outcome, never as an error.
func (s *PlacementService) Assign(ctx context.Context, req dto.AssignRequest) (models.PlacementOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	slot, missing, err := s.resolve(ctx, req.SectionID, req.Room, req.Day, req.Block, req.TermID)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return s.reject(opAssign, req.SectionID, models.Rejected{Conflicts: missing}), nil
	}

	unlock := s.gate.LockTerms(slot.term.ID)
	defer unlock()

	section, err := s.lockedSection(ctx, slot.section.ID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return s.reject(opAssign, req.SectionID, models.Rejected{Conflicts: []models.Conflict{models.NotFoundConflict("section", req.SectionID)}}), nil
	}
	slot.section = section

	conflicts := s.roomConflicts(slot.term.ID, slot.block, slot.room)
	conflicts = append(conflicts, s.instructorConflicts(s.assignedInstructor(slot.section), slot.term.ID, slot.block, "")...)
	if len(conflicts) > 0 {
		return s.reject(opAssign, slot.section.ID, models.Rejected{Conflicts: conflicts}), nil
	}

	placement := &models.Placement{
		TermID:      slot.term.ID,
		TimeBlockID: slot.block.ID,
		RoomID:      slot.room.ID,
		SectionID:   slot.section.ID,
	}
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		return s.placements.Create(ctx, exec, placement)
	})
	if err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintPlacementRoomSlot) {
			return s.reject(opAssign, slot.section.ID, models.Rejected{Conflicts: []models.Conflict{s.lostRaceConflict(ctx, slot)}}), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create placement")
	}

	detail := buildPlacementDetail(*placement, slot)
	s.index.Add(detail)
	s.metrics.SetIndexSize(s.index.Len())
	s.cache.InvalidateTerm(ctx, slot.term.ID)

	warnings := s.capacityWarnings(slot.section.EstimatedCapacity, slot.room)
	warnings = append(warnings, s.instructorWarnings(ctx, s.assignedInstructor(slot.section), slot.section.CourseCode, slot.term.ID, slot.block)...)

	return s.accept(opAssign, detail, warnings), nil
}

// AssignByCourse places the section named by course code and section name, the way the timetable
// board drops a course card into a cell. Career and semester narrow a code shared by several
// curricula; without them the first course holding a section of that name is used.
func (s *PlacementService) AssignByCourse(ctx context.Context, req dto.AssignByCourseRequest) (models.PlacementOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	courses, err := s.courses.FindCoursesByCode(ctx, strings.TrimSpace(req.CourseCode), strings.TrimSpace(req.Career), req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	label := strings.ToUpper(strings.TrimSpace(req.CourseCode)) + "-" + strings.ToUpper(strings.TrimSpace(req.SectionName))
	var section *models.SectionDetail
	for _, course := range courses {
		found, err := s.sections.FindByCourseName(ctx, course.ID, strings.TrimSpace(req.SectionName))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
		}
		section = found
		break
	}
	if section == nil {
		return s.reject(opAssign, label, models.Rejected{Conflicts: []models.Conflict{models.NotFoundConflict("section", label)}}), nil
	}
	if len(courses) > 1 {
		s.logger.Debug("course code matched several curricula",
			zap.String("course_code", req.CourseCode),
			zap.Int("matches", len(courses)),
			zap.String("section_id", section.ID),
		)
	}

	return s.Assign(ctx, dto.AssignRequest{
		SectionID: section.ID,
		Room:      req.Room,
		Day:       req.Day,
		Block:     req.Block,
		TermID:    req.TermID,
	})
}

// Unassign removes the placement identified by (section, room, day, block) in the term.
func (s *PlacementService) Unassign(ctx context.Context, req dto.UnassignRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	slot, missing, err := s.resolve(ctx, req.SectionID, req.Room, req.Day, req.Block, req.TermID)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return appErrors.WithDetails(appErrors.ErrNotFound, models.Rejected{Conflicts: missing}.Message(), missing)
	}

	unlock := s.gate.LockTerms(slot.term.ID)
	defer unlock()

	existing, ok := s.index.FindByLocation(slot.term.ID, slot.section.ID, slot.room.ID, slot.block.ID)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "placement not found")
	}

	if err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		return s.placements.Delete(ctx, exec, existing.ID)
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete placement")
	}

	s.index.Remove(existing.ID)
	s.metrics.SetIndexSize(s.index.Len())
	s.cache.InvalidateTerm(ctx, slot.term.ID)
	s.logger.Info("placement removed",
		zap.String("placement_id", existing.ID),
		zap.String("term_id", slot.term.ID),
		zap.String("section", existing.SectionLabel()),
		zap.String("room", existing.RoomName),
		zap.String("slot", slot.block.Slot()),
	)
	return nil
}

// MoveRoom moves a placement to another room in the same slot. A rejected move leaves the placement untouched.
func (s *PlacementService) MoveRoom(ctx context.Context, req dto.MoveRoomRequest) (models.PlacementOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}

	slot, missing, err := s.resolve(ctx, req.SectionID, req.FromRoom, req.Day, req.Block, req.TermID)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrNotFound, models.Rejected{Conflicts: missing}.Message(), missing)
	}

	target, err := s.rooms.FindByName(ctx, req.ToRoom)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.reject(opMoveRoom, slot.section.ID, models.Rejected{Conflicts: []models.Conflict{models.NotFoundConflict("room", req.ToRoom)}}), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	unlock := s.gate.LockTerms(slot.term.ID)
	defer unlock()

	section, err := s.lockedSection(ctx, slot.section.ID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	slot.section = section

	existing, ok := s.index.FindByLocation(slot.term.ID, slot.section.ID, slot.room.ID, slot.block.ID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
	}
	if target.ID == slot.room.ID {
		return s.accept(opMoveRoom, existing, nil), nil
	}

	if conflicts := s.roomConflicts(slot.term.ID, slot.block, target); len(conflicts) > 0 {
		return s.reject(opMoveRoom, slot.section.ID, models.Rejected{Conflicts: conflicts}), nil
	}

	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		return s.placements.UpdateRoom(ctx, exec, existing.ID, target.ID)
	})
	if err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintPlacementRoomSlot) {
			moved := slot
			moved.room = target
			return s.reject(opMoveRoom, slot.section.ID, models.Rejected{Conflicts: []models.Conflict{s.lostRaceConflict(ctx, moved)}}), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move placement")
	}

	updated := existing
	updated.RoomID = target.ID
	updated.RoomName = target.Name
	updated.RoomSite = target.Site
	s.index.Add(updated)
	s.cache.InvalidateTerm(ctx, slot.term.ID)

	return s.accept(opMoveRoom, updated, s.capacityWarnings(slot.section.EstimatedCapacity, target)), nil
}

// ReassignInstructor changes the instructor of the section behind a placement. The new instructor
// is checked against every placement of the section; on conflict nothing changes.
func (s *PlacementService) ReassignInstructor(ctx context.Context, req dto.ReassignInstructorRequest) (models.PlacementOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassignment payload")
	}

	slot, missing, err := s.resolve(ctx, req.SectionID, req.Room, req.Day, req.Block, req.TermID)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrNotFound, models.Rejected{Conflicts: missing}.Message(), missing)
	}

	var instructor *models.Instructor
	if !s.isUnassignedValue(req.Instructor) {
		instructor, err = s.instructors.FindByRUT(ctx, strings.TrimSpace(req.Instructor))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return s.reject(opReassign, slot.section.ID, models.Rejected{Conflicts: []models.Conflict{models.NotFoundConflict("instructor", req.Instructor)}}), nil
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
		}
	}

	unlock := s.gate.LockAll()
	defer unlock()

	section, err := s.lockedSection(ctx, slot.section.ID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	slot.section = section

	existing, ok := s.index.FindByLocation(slot.term.ID, slot.section.ID, slot.room.ID, slot.block.ID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
	}

	current := existing.Instructor()
	if (instructor == nil && current == "") || (instructor != nil && instructor.ID == current) {
		return s.accept(opReassign, existing, nil), nil
	}

	if instructor != nil {
		var conflicts []models.Conflict
		own := make(map[string]models.PlacementDetail)
		for _, p := range s.index.BySection(slot.section.ID) {
			block := &models.TimeBlock{ID: p.TimeBlockID, Name: p.BlockName, Day: p.Day}
			conflicts = append(conflicts, s.instructorConflicts(instructor.ID, p.TermID, block, slot.section.ID)...)

			// one instructor cannot cover two rooms of the same section in one cell
			cell := p.TermID + "|" + p.TimeBlockID
			if other, dup := own[cell]; dup {
				conflicts = append(conflicts, models.Conflict{
					Kind:    models.ConflictInstructor,
					Message: fmt.Sprintf("instructor %s cannot teach %s in rooms %s and %s on %s block %s",
						instructor.Name, p.SectionLabel(), other.RoomName, p.RoomName, p.Day, p.BlockName),
					OccupyingSectionID:  other.SectionID,
					OccupyingSection:    other.SectionLabel(),
					ExistingPlacementID: other.ID,
					InstructorID:        instructor.ID,
					Room:                other.RoomName,
					Day:                 p.Day,
					Block:               p.BlockName,
				})
				continue
			}
			own[cell] = p
		}
		if len(conflicts) > 0 {
			return s.reject(opReassign, slot.section.ID, models.Rejected{Conflicts: conflicts}), nil
		}
	}

	var instructorID *string
	if instructor != nil {
		id := instructor.ID
		instructorID = &id
	}
	if err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		return s.sections.SetInstructor(ctx, exec, slot.section.ID, instructorID)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign instructor")
	}

	terms := map[string]struct{}{}
	for _, p := range s.index.BySection(slot.section.ID) {
		terms[p.TermID] = struct{}{}
	}
	s.index.SetSectionInstructor(slot.section.ID, instructor)
	for termID := range terms {
		s.cache.InvalidateTerm(ctx, termID)
	}

	updated, _ := s.index.FindByLocation(slot.term.ID, slot.section.ID, slot.room.ID, slot.block.ID)
	var warnings []models.Warning
	if instructor != nil {
		warnings = s.instructorWarnings(ctx, instructor.ID, slot.section.CourseCode, slot.term.ID, slot.block)
	}
	return s.accept(opReassign, updated, warnings), nil
}

// ClearTerm deletes every placement of a term. An empty termID targets the current term.
func (s *PlacementService) ClearTerm(ctx context.Context, termID string) (*models.ClearResult, error) {
	term, err := s.terms.Resolve(ctx, termID)
	if err != nil {
		return nil, err
	}

	unlock := s.gate.LockTerms(term.ID)
	defer unlock()

	var deleted int64
	if err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		var err error
		deleted, err = s.placements.DeleteByTerm(ctx, exec, term.ID)
		return err
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear term")
	}

	s.index.RemoveTerm(term.ID)
	s.metrics.SetIndexSize(s.index.Len())
	s.cache.InvalidateTerm(ctx, term.ID)
	s.logger.Info("term placements cleared", zap.String("term_id", term.ID), zap.Int64("deleted", deleted))

	return &models.ClearResult{
		Message:      fmt.Sprintf("%d placements deleted from %s", deleted, term.Name),
		DeletedCount: int(deleted),
		TermID:       term.ID,
		Term:         term.Name,
	}, nil
}

// ClearCurrentTerm deletes every placement of the current term.
func (s *PlacementService) ClearCurrentTerm(ctx context.Context) (*models.ClearResult, error) {
	return s.ClearTerm(ctx, "")
}

// ListTerm returns the placements of a term from the index.
func (s *PlacementService) ListTerm(ctx context.Context, termID string) ([]models.PlacementDetail, error) {
	term, err := s.terms.Resolve(ctx, termID)
	if err != nil {
		return nil, err
	}
	placements := s.index.ByTerm(term.ID)
	if placements == nil {
		placements = []models.PlacementDetail{}
	}
	return placements, nil
}

// ListRoom returns the placements of a room in a term, ordered by day then block.
func (s *PlacementService) ListRoom(ctx context.Context, roomName, termID string) ([]models.PlacementDetail, error) {
	term, err := s.terms.Resolve(ctx, termID)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.FindByName(ctx, roomName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room '%s' not found", roomName))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	placements := s.index.ByRoom(term.ID, room.ID)
	if placements == nil {
		placements = []models.PlacementDetail{}
	}
	return placements, nil
}

// RebuildIndex reloads every placement from the store under the exclusive writer lock.
func (s *PlacementService) RebuildIndex(ctx context.Context) (int, error) {
	unlock := s.gate.LockAll()
	defer unlock()

	start := time.Now()
	placements, err := s.placements.ListDetails(ctx, "")
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placements")
	}
	s.index.Replace(placements)
	s.metrics.ObserveIndexRebuild(time.Since(start))
	s.metrics.SetIndexSize(len(placements))
	s.cache.InvalidateAll(ctx)
	return len(placements), nil
}

func (s *PlacementService) roomConflicts(termID string, block *models.TimeBlock, room *models.Room) []models.Conflict {
	occupant, ok := s.index.RoomOccupant(termID, block.ID, room.ID)
	if !ok {
		return nil
	}
	return []models.Conflict{{
		Kind:    models.ConflictRoom,
		Message: fmt.Sprintf("room %s is already taken by %s on %s block %s",
			room.Name, occupant.SectionLabel(), block.Day, block.Name),
		OccupyingSectionID:  occupant.SectionID,
		OccupyingSection:    occupant.SectionLabel(),
		ExistingPlacementID: occupant.ID,
		Room:                room.Name,
		Day:                 block.Day,
		Block:               block.Name,
	}}
}

// instructorConflicts lists placements of instructorID in the (term, block) cell, skipping ignoreSection.
func (s *PlacementService) instructorConflicts(instructorID, termID string, block *models.TimeBlock, ignoreSection string) []models.Conflict {
	if instructorID == "" {
		return nil
	}
	var conflicts []models.Conflict
	for _, p := range s.index.InstructorOccupants(instructorID, termID, block.ID) {
		if ignoreSection != "" && p.SectionID == ignoreSection {
			continue
		}
		name := instructorID
		if p.InstructorName != nil {
			name = *p.InstructorName
		}
		conflicts = append(conflicts, models.Conflict{
			Kind:    models.ConflictInstructor,
			Message: fmt.Sprintf("instructor %s already teaches %s in room %s on %s block %s",
				name, p.SectionLabel(), p.RoomName, block.Day, block.Name),
			OccupyingSectionID:  p.SectionID,
			OccupyingSection:    p.SectionLabel(),
			ExistingPlacementID: p.ID,
			InstructorID:        instructorID,
			Room:                p.RoomName,
			Day:                 block.Day,
			Block:               block.Name,
		})
	}
	return conflicts
}

// lockedSection re-reads a section once the writer gate is held. It returns nil when the section is gone.
func (s *PlacementService) lockedSection(ctx context.Context, id string) (*models.SectionDetail, error) {
	section, err := s.sections.FindByID(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// lostRaceConflict reports a room-slot constraint violation that the index did not predict.
// A row written by another process is read back from the store and indexed.
func (s *PlacementService) lostRaceConflict(ctx context.Context, slot resolvedSlot) models.Conflict {
	c := models.Conflict{
		Kind:    models.ConflictRoom,
		Message: fmt.Sprintf("room %s was taken on %s block %s by a concurrent write", slot.room.Name, slot.block.Day, slot.block.Name),
		Room:    slot.room.Name,
		Day:     slot.block.Day,
		Block:   slot.block.Name,
	}
	occupant, ok := s.index.RoomOccupant(slot.term.ID, slot.block.ID, slot.room.ID)
	if !ok {
		stored, err := s.placements.FindByCell(ctx, slot.term.ID, slot.block.ID, slot.room.ID)
		switch {
		case err == nil:
			occupant, ok = *stored, true
			s.index.Add(occupant)
			s.metrics.SetIndexSize(s.index.Len())
			s.cache.InvalidateTerm(ctx, slot.term.ID)
		case !errors.Is(err, sql.ErrNoRows):
			s.logger.Warn("occupant lookup failed",
				zap.String("term_id", slot.term.ID),
				zap.String("room", slot.room.Name),
				zap.String("slot", slot.block.Slot()),
				zap.Error(err),
			)
		}
	}
	if ok {
		c.Message = fmt.Sprintf("room %s was taken by %s on %s block %s by a concurrent write",
			slot.room.Name, occupant.SectionLabel(), slot.block.Day, slot.block.Name)
		c.OccupyingSectionID = occupant.SectionID
		c.OccupyingSection = occupant.SectionLabel()
		c.ExistingPlacementID = occupant.ID
	}
	return c
}

func (s *PlacementService) capacityWarnings(estimated int, room *models.Room) []models.Warning {
	if room == nil || room.Capacity == nil || estimated <= 0 {
		return nil
	}
	limit := float64(*room.Capacity) * s.cfg.CapacityWarnRatio
	if float64(estimated) <= limit {
		return nil
	}
	return []models.Warning{{
		Kind:    models.WarningCapacity,
		Message: fmt.Sprintf("estimated capacity %d exceeds room %s capacity %d", estimated, room.Name, *room.Capacity),
	}}
}

func (s *PlacementService) instructorWarnings(ctx context.Context, instructorID, courseCode, termID string, block *models.TimeBlock) []models.Warning {
	if instructorID == "" || s.instructors == nil {
		return nil
	}
	instructor, err := s.instructors.FindByID(ctx, instructorID)
	if err != nil {
		s.logger.Warn("instructor lookup for warnings failed", zap.String("instructor_id", instructorID), zap.Error(err))
		return nil
	}

	var warnings []models.Warning
	if ceiling := instructor.MaxSectionsPerWeek; ceiling > 0 {
		load := s.index.InstructorLoad(instructorID, termID)
		switch {
		case load > ceiling:
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningLoad,
				Message: fmt.Sprintf("instructor %s has %d weekly placements, above the ceiling of %d", instructor.Name, load, ceiling),
			})
		case float64(load) >= s.cfg.LoadWarnRatio*float64(ceiling):
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningLoad,
				Message: fmt.Sprintf("instructor %s has %d of %d weekly placements", instructor.Name, load, ceiling),
			})
		}
	}
	if !instructor.AvailableAt(block.Day, block.Name) {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarningWindow,
			Message: fmt.Sprintf("instructor %s did not declare availability for %s", instructor.Name, block.Slot()),
		})
	}
	if courseCode != "" && !instructor.Offers(courseCode) {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarningQualification,
			Message: fmt.Sprintf("instructor %s does not offer %s", instructor.Name, courseCode),
		})
	}
	return warnings
}

func (s *PlacementService) accept(op string, detail models.PlacementDetail, warnings []models.Warning) models.PlacementOutcome {
	outcome := models.NewAccepted(detail, warnings)
	s.metrics.RecordOutcome(op, outcome)
	s.logger.Info("placement accepted",
		zap.String("operation", op),
		zap.String("placement_id", detail.ID),
		zap.String("term_id", detail.TermID),
		zap.String("section", detail.SectionLabel()),
		zap.String("room", detail.RoomName),
		zap.String("slot", models.SlotKey(detail.Day, detail.BlockName)),
		zap.Int("warnings", len(warnings)),
	)
	return outcome
}

func (s *PlacementService) reject(op, sectionID string, outcome models.Rejected) models.PlacementOutcome {
	s.metrics.RecordOutcome(op, outcome)
	s.logger.Warn("placement rejected",
		zap.String("operation", op),
		zap.String("section_id", sectionID),
		zap.String("reason", outcome.Message()),
	)
	return outcome
}

func buildPlacementDetail(p models.Placement, slot resolvedSlot) models.PlacementDetail {
	sec := slot.section
	return models.PlacementDetail{
		Placement:         p,
		Day:               slot.block.Day,
		BlockName:         slot.block.Name,
		RoomName:          slot.room.Name,
		RoomSite:          slot.room.Site,
		CourseID:          sec.CourseID,
		CourseCode:        sec.CourseCode,
		SectionName:       sec.Name,
		CareerID:          sec.CareerID,
		CareerCode:        sec.CareerCode,
		SemesterNumber:    sec.SemesterNumber,
		InstructorID:      sec.InstructorID,
		InstructorRUT:     sec.InstructorRUT,
		InstructorName:    sec.InstructorName,
		EstimatedCapacity: sec.EstimatedCapacity,
	}
}
