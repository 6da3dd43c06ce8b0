package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-testslot-api/internal/dto"
	"github.com/noah-isme/sma-testslot-api/internal/repository"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
)

// AvailabilityServiceParams groups constructor dependencies.
type AvailabilityServiceParams struct {
	Store     repository.GraphStore
	Guard     *ConflictGuard
	Metrics   *MetricsService
	Validator *validator.Validate
	Location  *time.Location
}

// AvailabilityService derives candidate test periods from the weekly timetable.
type AvailabilityService struct {
	store     repository.GraphStore
	guard     *ConflictGuard
	metrics   *MetricsService
	validator *validator.Validate
	location  *time.Location
	now       func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(params AvailabilityServiceParams) *AvailabilityService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	guard := params.Guard
	if guard == nil {
		guard = NewConflictGuard(params.Store)
	}
	return &AvailabilityService{
		store:     params.Store,
		guard:     guard,
		metrics:   params.Metrics,
		validator: validate,
		location:  loc,
		now:       time.Now,
	}
}

// ResolvePeriods returns the period descriptors open for subject on date,
// ordered by slot.
func (s *AvailabilityService) ResolvePeriods(ctx context.Context, subject, date string) ([]string, error) {
	resp, err := s.Resolve(ctx, dto.PeriodsQuery{Subject: subject, Date: date})
	if err != nil {
		return nil, err
	}
	return resp.Periods, nil
}

// Resolve checks the date first (format, then strictly in the future), then
// the subject, short-circuits on an existing test and otherwise reads the sessions
// of the subject on the weekday of the date.
func (s *AvailabilityService) Resolve(ctx context.Context, query dto.PeriodsQuery) (*dto.PeriodsResponse, error) {
	query.Subject = strings.TrimSpace(query.Subject)
	query.Date = strings.TrimSpace(query.Date)

	date, err := parseCalendarDate(query.Date, s.location)
	if err != nil {
		return nil, err
	}
	if !date.After(startOfDay(s.now(), s.location)) {
		return nil, appErrors.Clone(appErrors.ErrInvalidDate, "date must be in the future")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "subject is required and must be at most 200 characters")
	}

	weekday := WeekdayOf(date)
	var periods []string
	err = s.store.Read(ctx, func(tx repository.GraphTx) error {
		conflict, err := s.guard.HasConflict(ctx, tx, query.Subject, query.Date)
		if err != nil {
			return err
		}
		if conflict {
			return appErrors.ErrAlreadyScheduled
		}

		sessions, err := tx.SessionsOn(ctx, query.Subject, weekday)
		if err != nil {
			return appErrors.StoreUnavailable(err, "failed to load class sessions")
		}
		sortSessionsBySlot(sessions)
		periods = make([]string, 0, len(sessions))
		for _, session := range sessions {
			periods = append(periods, session.Period())
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrAlreadyScheduled) {
			s.metrics.RecordConflict("resolve")
		}
		return nil, storeError(err, "failed to resolve periods")
	}
	if len(periods) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoSessions, "no class sessions for "+query.Subject+" on "+weekday)
	}

	return &dto.PeriodsResponse{
		Subject: query.Subject,
		Date:    query.Date,
		Weekday: weekday,
		Periods: periods,
	}, nil
}
