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

type availabilityService interface {
	AvailableRooms(ctx context.Context, q dto.AvailableRoomsQuery) ([]models.Room, error)
	AvailableInstructors(ctx context.Context, q dto.AvailableInstructorsQuery) ([]models.Instructor, error)
}

// AvailabilityHandler answers free-room and free-instructor lookups.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Rooms godoc
// @Summary List free rooms at a slot
// @Tags Availability
// @Produce json
// @Param day query string true "Day"
// @Param block query string true "Block name"
// @Param termId query string false "Term ID"
// @Param site query string false "Site, defaults to the configured campus"
// @Success 200 {object} response.Envelope
// @Router /availability/rooms [get]
func (h *AvailabilityHandler) Rooms(c *gin.Context) {
	var q dto.AvailableRoomsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	rooms, err := h.service.AvailableRooms(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, map[string]interface{}{"total": len(rooms)})
}

// Instructors godoc
// @Summary List instructors free to teach a course at a slot
// @Tags Availability
// @Produce json
// @Param course query string true "Course code"
// @Param career query string false "Career code"
// @Param day query string true "Day"
// @Param block query string true "Block name"
// @Param termId query string false "Term ID"
// @Success 200 {object} response.Envelope
// @Router /availability/instructors [get]
func (h *AvailabilityHandler) Instructors(c *gin.Context) {
	var q dto.AvailableInstructorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	instructors, err := h.service.AvailableInstructors(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, map[string]interface{}{"total": len(instructors)})
}
