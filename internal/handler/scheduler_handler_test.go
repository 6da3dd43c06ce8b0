package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-testslot-api/internal/dto"
	"github.com/noah-isme/sma-testslot-api/internal/middleware"
	"github.com/noah-isme/sma-testslot-api/internal/models"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
)

type availabilityServiceMock struct {
	resp      *dto.PeriodsResponse
	err       error
	lastQuery dto.PeriodsQuery
}

func (m *availabilityServiceMock) Resolve(ctx context.Context, query dto.PeriodsQuery) (*dto.PeriodsResponse, error) {
	m.lastQuery = query
	return m.resp, m.err
}

type schedulingServiceMock struct {
	err     error
	lastReq dto.ScheduleTestRequest
	called  bool
}

func (m *schedulingServiceMock) ScheduleTest(ctx context.Context, req dto.ScheduleTestRequest) (*models.ScheduledTest, error) {
	m.called = true
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.ScheduledTest{Teacher: req.Teacher, Subject: req.Subject, Date: req.Date, Period: req.Period}, nil
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSchedulerHandlerPeriods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{resp: &dto.PeriodsResponse{
		Subject: "Calculus",
		Date:    "2025-03-17",
		Weekday: "Monday",
		Periods: []string{"Slot 4 (10:45 am - 11:35 am) - F305"},
	}}
	handler := NewSchedulerHandler(mockSvc, &schedulingServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/periods?subject=Calculus&date=2025-03-17", nil)

	handler.Periods(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Calculus", mockSvc.lastQuery.Subject)
	assert.Equal(t, "2025-03-17", mockSvc.lastQuery.Date)

	var resp dto.PeriodsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.Equal(t, "Monday", resp.Weekday)
}

func TestSchedulerHandlerPeriodsErrorKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[*appErrors.Error]int{
		appErrors.Clone(appErrors.ErrInvalidDate, "date must be in the future"): http.StatusBadRequest,
		appErrors.ErrAlreadyScheduled:                                          http.StatusConflict,
		appErrors.ErrNoSessions:                                                http.StatusNotFound,
		appErrors.ErrStoreUnavailable:                                          http.StatusServiceUnavailable,
	}
	for appErr, status := range cases {
		handler := NewSchedulerHandler(&availabilityServiceMock{err: appErr}, &schedulingServiceMock{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/periods?subject=Calculus&date=2025-03-12", nil)

		handler.Periods(c)
		assert.Equal(t, status, w.Code, appErr.Code)
		assert.Equal(t, appErr.Code, decodeEnvelope(t, w).Error.Code)
	}
}

func TestSchedulerHandlerSchedule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &schedulingServiceMock{}
	handler := NewSchedulerHandler(&availabilityServiceMock{}, mockSvc)

	body := `{"teacher":"Dr. Selar E","subject":"Calculus","date":"2025-03-17","period":"Slot 4 (10:45 am - 11:35 am) - F305"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/tests", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Schedule(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Dr. Selar E", mockSvc.lastReq.Teacher)

	var result models.ScheduledTest
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &result))
	assert.Equal(t, "2025-03-17", result.Date)
}

func TestSchedulerHandlerScheduleInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &schedulingServiceMock{}
	handler := NewSchedulerHandler(&availabilityServiceMock{}, mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/tests", bytes.NewBufferString(`{"teacher":`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Schedule(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.called)
}

func TestSchedulerHandlerScheduleConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSchedulerHandler(&availabilityServiceMock{}, &schedulingServiceMock{err: appErrors.ErrAlreadyScheduled})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/tests", bytes.NewBufferString(`{"teacher":"a","subject":"b","date":"2025-03-17","period":"p"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Schedule(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_SCHEDULED", decodeEnvelope(t, w).Error.Code)
}

func TestSchedulerHandlerScheduleUsesTokenTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &schedulingServiceMock{}
	handler := NewSchedulerHandler(&availabilityServiceMock{}, mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/tests", bytes.NewBufferString(`{"subject":"Calculus","date":"2025-03-17","period":"p"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextClaimsKey, &models.TokenClaims{Teacher: "Dr. Selar E"})

	handler.Schedule(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Dr. Selar E", mockSvc.lastReq.Teacher)
}

func TestSchedulerHandlerScheduleRejectsForeignTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &schedulingServiceMock{}
	handler := NewSchedulerHandler(&availabilityServiceMock{}, mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/tests", bytes.NewBufferString(`{"teacher":"Dr. K Ilango","subject":"Calculus","date":"2025-03-17","period":"p"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextClaimsKey, &models.TokenClaims{Teacher: "Dr. Selar E"})

	handler.Schedule(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, mockSvc.called)
}

func TestSchedulerHandlerScheduleTrimsTeacherBeforeOwnerCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &schedulingServiceMock{}
	handler := NewSchedulerHandler(&availabilityServiceMock{}, mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/tests", bytes.NewBufferString(`{"teacher":"  Dr. Selar E ","subject":"Calculus","date":"2025-03-17","period":"p"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextClaimsKey, &models.TokenClaims{Teacher: "Dr. Selar E"})

	handler.Schedule(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Dr. Selar E", mockSvc.lastReq.Teacher)
}
