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

type gridService interface {
	LayeredGrid(ctx context.Context, q dto.GridQuery) (*models.Grid, error)
}

// GridHandler renders the layered weekly grid.
type GridHandler struct {
	service gridService
}

// NewGridHandler constructs handler.
func NewGridHandler(svc gridService) *GridHandler {
	return &GridHandler{service: svc}
}

// Layered godoc
// @Summary Weekly grid of a career semester with lower semesters layered underneath
// @Tags Grid
// @Produce json
// @Param career query string true "Career ID or code"
// @Param semester query int true "Semester number"
// @Param depth query int false "How many lower semesters to layer"
// @Param termId query string false "Term ID"
// @Success 200 {object} response.Envelope
// @Router /grid [get]
func (h *GridHandler) Layered(c *gin.Context) {
	var q dto.GridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	grid, err := h.service.LayeredGrid(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid)
}
