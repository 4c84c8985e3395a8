package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

type sectionService interface {
	Create(ctx context.Context, req dto.CreateSectionRequest) (*models.Section, error)
	Delete(ctx context.Context, id string, cascade bool) (int, error)
	GenerateFromDemand(ctx context.Context, req dto.GenerateSectionsRequest) ([]models.Section, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error)
}

// SectionHandler manages course sections.
type SectionHandler struct {
	service sectionService
}

// NewSectionHandler constructs handler.
func NewSectionHandler(svc sectionService) *SectionHandler {
	return &SectionHandler{service: svc}
}

// List godoc
// @Summary List sections of a course
// @Tags Sections
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	sections, err := h.service.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections)
}

// Create godoc
// @Summary Create a section
// @Description The name is generated from the section type prefix when omitted.
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body dto.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Generate godoc
// @Summary Generate sections from course demand
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.GenerateSectionsRequest false "Overrides for number and size"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/sections/generate [post]
func (h *SectionHandler) Generate(c *gin.Context) {
	var req dto.GenerateSectionsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	req.CourseID = c.Param("id")
	sections, err := h.service.GenerateFromDemand(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections)
}

// Delete godoc
// @Summary Delete a section
// @Description Fails with IN_USE while placements exist unless cascade=true.
// @Tags Sections
// @Param id path string true "Section ID"
// @Param cascade query bool false "Also delete its placements"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections/{id} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	cascade := false
	if raw := c.Query("cascade"); raw != "" {
		val, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "cascade must be a boolean"))
			return
		}
		cascade = val
	}
	removed, err := h.service.Delete(c.Request.Context(), c.Param("id"), cascade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "removedPlacements": removed})
}
