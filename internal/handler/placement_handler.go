package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

type placementService interface {
	Assign(ctx context.Context, req dto.AssignRequest) (models.PlacementOutcome, error)
	AssignByCourse(ctx context.Context, req dto.AssignByCourseRequest) (models.PlacementOutcome, error)
	Unassign(ctx context.Context, req dto.UnassignRequest) error
	MoveRoom(ctx context.Context, req dto.MoveRoomRequest) (models.PlacementOutcome, error)
	ReassignInstructor(ctx context.Context, req dto.ReassignInstructorRequest) (models.PlacementOutcome, error)
	ClearTerm(ctx context.Context, termID string) (*models.ClearResult, error)
	ListTerm(ctx context.Context, termID string) ([]models.PlacementDetail, error)
	ListRoom(ctx context.Context, roomName, termID string) ([]models.PlacementDetail, error)
}

// PlacementHandler exposes the conflict checker.
type PlacementHandler struct {
	service placementService
}

// NewPlacementHandler constructs handler.
func NewPlacementHandler(svc placementService) *PlacementHandler {
	return &PlacementHandler{service: svc}
}

// Assign godoc
// @Summary Propose a placement
// @Description Places a section into a room at a day/block. Term defaults to the current one.
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body dto.AssignRequest true "Placement proposal"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placements [post]
func (h *PlacementHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, outcome, http.StatusCreated)
}

// AssignByCourse godoc
// @Summary Propose a placement by course code and section name
// @Description Resolves the section from course code and section name, narrowed by career and semester when given.
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body dto.AssignByCourseRequest true "Placement proposal"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placements/by-course [post]
func (h *PlacementHandler) AssignByCourse(c *gin.Context) {
	var req dto.AssignByCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.service.AssignByCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, outcome, http.StatusCreated)
}

// Unassign godoc
// @Summary Remove a placement by location
// @Tags Placements
// @Param sectionId query string true "Section ID"
// @Param room query string true "Room name"
// @Param day query string true "Day (MONDAY or LUNES)"
// @Param block query string true "Block name"
// @Param termId query string false "Term ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /placements [delete]
func (h *PlacementHandler) Unassign(c *gin.Context) {
	var req dto.UnassignRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if err := h.service.Unassign(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MoveRoom godoc
// @Summary Move a placement to another room
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body dto.MoveRoomRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placements/room [put]
func (h *PlacementHandler) MoveRoom(c *gin.Context) {
	var req dto.MoveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.service.MoveRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, outcome, http.StatusOK)
}

// ReassignInstructor godoc
// @Summary Change the instructor of a placed section
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body dto.ReassignInstructorRequest true "Reassignment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placements/instructor [put]
func (h *PlacementHandler) ReassignInstructor(c *gin.Context) {
	var req dto.ReassignInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.service.ReassignInstructor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, outcome, http.StatusOK)
}

// ListTerm godoc
// @Summary List placements of a term
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID or 'current'"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/placements [get]
func (h *PlacementHandler) ListTerm(c *gin.Context) {
	placements, err := h.service.ListTerm(c.Request.Context(), termParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placements, map[string]interface{}{"total": len(placements)})
}

// ListRoom godoc
// @Summary List the placements of a room
// @Tags Rooms
// @Produce json
// @Param name path string true "Room name"
// @Param termId query string false "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{name}/placements [get]
func (h *PlacementHandler) ListRoom(c *gin.Context) {
	placements, err := h.service.ListRoom(c.Request.Context(), c.Param("name"), c.Query("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placements, map[string]interface{}{"total": len(placements)})
}

// ClearTerm godoc
// @Summary Delete every placement of a term
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID or 'current'"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/placements [delete]
func (h *PlacementHandler) ClearTerm(c *gin.Context) {
	result, err := h.service.ClearTerm(c.Request.Context(), termParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// respondOutcome maps accepted outcomes to success and rejections to 404 (only missing
// references) or 409 (conflicts), carrying the conflict list as error details.
func respondOutcome(c *gin.Context, outcome models.PlacementOutcome, success int) {
	body := dto.NewOutcomeResponse(outcome)
	switch o := outcome.(type) {
	case models.Accepted:
		response.JSON(c, success, body)
	case models.AcceptedWithWarnings:
		if success == http.StatusCreated {
			response.CreatedWithWarnings(c, body, o.Warnings)
			return
		}
		response.JSON(c, success, body)
	case models.Rejected:
		base := appErrors.ErrConflict
		switch {
		case o.OnlyNotFound():
			base = appErrors.ErrNotFound
		case o.Has(models.ConflictRoom):
			base = appErrors.ErrRoomConflict
		case o.Has(models.ConflictInstructor):
			base = appErrors.ErrInstructorConflict
		}
		response.Error(c, appErrors.WithDetails(base, o.Message(), o.Conflicts))
	default:
		response.Error(c, appErrors.ErrInternal)
	}
}

func termParam(c *gin.Context) string {
	id := c.Param("id")
	if id == "current" {
		return ""
	}
	return id
}
