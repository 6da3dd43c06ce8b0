package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-testslot-api/internal/dto"
	"github.com/noah-isme/sma-testslot-api/internal/middleware"
	"github.com/noah-isme/sma-testslot-api/internal/models"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
	"github.com/noah-isme/sma-testslot-api/pkg/response"
)

type availabilityService interface {
	Resolve(ctx context.Context, query dto.PeriodsQuery) (*dto.PeriodsResponse, error)
}

type schedulingService interface {
	ScheduleTest(ctx context.Context, req dto.ScheduleTestRequest) (*models.ScheduledTest, error)
}

// SchedulerHandler exposes period resolution and test scheduling.
type SchedulerHandler struct {
	availability availabilityService
	scheduling   schedulingService
}

// NewSchedulerHandler constructs a SchedulerHandler.
func NewSchedulerHandler(availability availabilityService, scheduling schedulingService) *SchedulerHandler {
	return &SchedulerHandler{availability: availability, scheduling: scheduling}
}

// Periods godoc
// @Summary Resolve candidate test periods
// @Tags Scheduling
// @Produce json
// @Param subject query string true "Course name"
// @Param date query string true "Date (YYYY-MM-DD), strictly in the future"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /periods [get]
func (h *SchedulerHandler) Periods(c *gin.Context) {
	var query dto.PeriodsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	result, err := h.availability.Resolve(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Schedule godoc
// @Summary Schedule a test in a resolved period
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleTestRequest true "Scheduling payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /tests [post]
func (h *SchedulerHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if claims := middleware.ClaimsFromContext(c); claims != nil {
		req.Teacher = strings.TrimSpace(req.Teacher)
		switch {
		case req.Teacher == "":
			req.Teacher = claims.Teacher
		case req.Teacher != claims.Teacher:
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token does not belong to this teacher"))
			return
		}
	}

	result, err := h.scheduling.ScheduleTest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
