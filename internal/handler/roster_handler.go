package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-testslot-api/internal/middleware"
	"github.com/noah-isme/sma-testslot-api/internal/models"
	"github.com/noah-isme/sma-testslot-api/pkg/response"
)

type rosterService interface {
	LookupTeachers(ctx context.Context) ([]string, bool, error)
	LookupCourses(ctx context.Context, teacher string) ([]string, bool, error)
	LookupScheduledTests(ctx context.Context) ([]models.ScheduledTest, bool, error)
}

// RosterHandler serves the read-only roster projections.
type RosterHandler struct {
	roster rosterService
}

// NewRosterHandler constructs a RosterHandler.
func NewRosterHandler(roster rosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// Teachers godoc
// @Summary List teachers
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *RosterHandler) Teachers(c *gin.Context) {
	teachers, hit, err := h.roster.LookupTeachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, teachers, middleware.ExtractMeta(c))
}

// Courses godoc
// @Summary List courses taught by a teacher
// @Tags Roster
// @Produce json
// @Param name path string true "Teacher name"
// @Success 200 {object} response.Envelope
// @Router /teachers/{name}/courses [get]
func (h *RosterHandler) Courses(c *gin.Context) {
	courses, hit, err := h.roster.LookupCourses(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, courses, middleware.ExtractMeta(c))
}

// Tests godoc
// @Summary List scheduled tests by date
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tests [get]
func (h *RosterHandler) Tests(c *gin.Context) {
	tests, hit, err := h.roster.LookupScheduledTests(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, tests, middleware.ExtractMeta(c))
}
