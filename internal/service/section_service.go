package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

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

type sectionStore interface {
	FindByID(ctx context.Context, id string) (*models.SectionDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error)
	ListByCourseType(ctx context.Context, exec sqlx.ExtContext, courseID, sectionTypeID string) ([]models.Section, error)
	Create(ctx context.Context, exec sqlx.ExtContext, section *models.Section) error
	UpdateCapacity(ctx context.Context, exec sqlx.ExtContext, id string, capacity int) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type sectionCatalog interface {
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	FindSectionType(ctx context.Context, id string) (*models.SectionType, error)
	FindSectionTypeByName(ctx context.Context, name string) (*models.SectionType, error)
}

type sectionPlacementStore interface {
	CountBySection(ctx context.Context, sectionID string) (int, error)
	DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error)
}

// SectionService manages the lifecycle of sections ("paralelos").
type SectionService struct {
	sections   sectionStore
	catalog    sectionCatalog
	placements sectionPlacementStore
	index      *repository.PlacementIndex
	tx         database.Transactor
	gate       *WriteGate
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        config.SchedulerConfig
}

// NewSectionService creates a new section service instance.
func NewSectionService(sections sectionStore, catalog sectionCatalog, placements sectionPlacementStore, index *repository.PlacementIndex, tx database.Transactor, gate *WriteGate, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg config.SchedulerConfig) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if gate == nil {
		gate = NewWriteGate()
	}
	if cfg.DefaultSectionType == "" {
		cfg.DefaultSectionType = "Catedra"
	}
	return &SectionService{
		sections:   sections,
		catalog:    catalog,
		placements: placements,
		index:      index,
		tx:         tx,
		gate:       gate,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Create adds a section. A requested name must be unused within (course, type); an omitted
// name becomes the type prefix followed by the next integer after the highest one in use.
func (s *SectionService) Create(ctx context.Context, req dto.CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	course, sectionType, err := s.courseAndType(ctx, req.CourseID, req.SectionTypeID)
	if err != nil {
		return nil, err
	}

	unlock := s.gate.LockKey(sectionLockKey(course.ID, sectionType.ID))
	defer unlock()

	existing, err := s.sections.ListByCourseType(ctx, nil, course.ID, sectionType.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = NextSectionName(sectionType.NamePrefix(), existing)
	} else if nameTaken(existing, name) {
		return nil, appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("section %s already exists for %s", name, course.Code))
	}

	section := &models.Section{
		CourseID:          course.ID,
		SectionTypeID:     sectionType.ID,
		Name:              name,
		EstimatedCapacity: req.EstimatedCapacity,
		InstructorID:      req.InstructorID,
		NRC:               req.NRC,
	}
	if err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		return s.sections.Create(ctx, exec, section)
	}); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintSectionName) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("section %s already exists for %s", name, course.Code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}

	s.logger.Info("section created", zap.String("section_id", section.ID), zap.String("course", course.Code), zap.String("name", section.Name))
	return section, nil
}

// Delete removes a section. Sections with placements need cascade; the placements go first.
func (s *SectionService) Delete(ctx context.Context, id string, cascade bool) (int, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section '%s' not found", id))
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	unlock := s.gate.LockAll()
	defer unlock()

	count, err := s.placements.CountBySection(ctx, section.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count placements")
	}
	if count > 0 && !cascade {
		return 0, appErrors.WithDetails(appErrors.ErrInUse,
			fmt.Sprintf("section %s has %d placements; confirm cascade to delete them", section.Label(), count),
			map[string]int{"placements": count})
	}

	var removed int64
	if err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		var err error
		if removed, err = s.placements.DeleteBySection(ctx, exec, section.ID); err != nil {
			return err
		}
		return s.sections.Delete(ctx, exec, section.ID)
	}); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}

	terms := map[string]struct{}{}
	for _, p := range s.index.BySection(section.ID) {
		terms[p.TermID] = struct{}{}
	}
	s.index.RemoveSection(section.ID)
	for termID := range terms {
		s.cache.InvalidateTerm(ctx, termID)
	}

	s.logger.Info("section deleted", zap.String("section_id", section.ID), zap.String("section", section.Label()), zap.Int64("placements", removed))
	return int(removed), nil
}

// GenerateFromDemand upserts prefix1..prefixN of the default type for a course, copying the
// section size into each estimated capacity. Re-running it converges to the same set.
func (s *SectionService) GenerateFromDemand(ctx context.Context, req dto.GenerateSectionsRequest) ([]models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid demand payload")
	}

	course, sectionType, err := s.courseAndType(ctx, req.CourseID, "")
	if err != nil {
		return nil, err
	}

	count := req.SectionsNumber
	if count == 0 {
		count = course.SectionsNumber
	}
	size := req.SectionSize
	if size == 0 {
		size = course.SectionSize
	}
	if count <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s declares no sections", course.Code))
	}

	unlock := s.gate.LockKey(sectionLockKey(course.ID, sectionType.ID))
	defer unlock()

	prefix := sectionType.NamePrefix()
	var result []models.Section
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		existing, err := s.sections.ListByCourseType(ctx, exec, course.ID, sectionType.ID)
		if err != nil {
			return err
		}
		byName := make(map[string]models.Section, len(existing))
		for _, sec := range existing {
			byName[strings.ToUpper(sec.Name)] = sec
		}

		result = make([]models.Section, 0, count)
		for i := 1; i <= count; i++ {
			name := prefix + strconv.Itoa(i)
			if sec, ok := byName[strings.ToUpper(name)]; ok {
				if sec.EstimatedCapacity != size {
					if err := s.sections.UpdateCapacity(ctx, exec, sec.ID, size); err != nil {
						return err
					}
					sec.EstimatedCapacity = size
				}
				result = append(result, sec)
				continue
			}
			sec := models.Section{CourseID: course.ID, SectionTypeID: sectionType.ID, Name: name, EstimatedCapacity: size}
			if err := s.sections.Create(ctx, exec, &sec); err != nil {
				return err
			}
			result = append(result, sec)
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate sections")
	}

	s.logger.Info("sections generated", zap.String("course", course.Code), zap.Int("sections", count), zap.Int("size", size))
	return result, nil
}

// ListByCourse returns the sections of a course.
func (s *SectionService) ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error) {
	if _, err := s.catalog.FindCourse(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course '%s' not found", courseID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	sections, err := s.sections.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	if sections == nil {
		sections = []models.SectionDetail{}
	}
	return sections, nil
}

func (s *SectionService) courseAndType(ctx context.Context, courseID, sectionTypeID string) (*models.Course, *models.SectionType, error) {
	course, err := s.catalog.FindCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course '%s' not found", courseID))
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	var sectionType *models.SectionType
	ref := sectionTypeID
	if ref == "" {
		ref = s.cfg.DefaultSectionType
		sectionType, err = s.catalog.FindSectionTypeByName(ctx, ref)
	} else {
		sectionType, err = s.catalog.FindSectionType(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section type '%s' not found", ref))
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section type")
	}
	return course, sectionType, nil
}

// NextSectionName returns prefix followed by one more than the highest numeric suffix in use.
func NextSectionName(prefix string, existing []models.Section) string {
	highest := 0
	for _, sec := range existing {
		name := strings.ToUpper(strings.TrimSpace(sec.Name))
		if !strings.HasPrefix(name, strings.ToUpper(prefix)) {
			continue
		}
		if n, err := strconv.Atoi(name[len(prefix):]); err == nil && n > highest {
			highest = n
		}
	}
	return prefix + strconv.Itoa(highest+1)
}

func nameTaken(existing []models.Section, name string) bool {
	for _, sec := range existing {
		if strings.EqualFold(strings.TrimSpace(sec.Name), name) {
			return true
		}
	}
	return false
}

func sectionLockKey(courseID, sectionTypeID string) string {
	return "section:" + courseID + ":" + sectionTypeID
}
