package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-testslot-api/internal/dto"
	"github.com/noah-isme/sma-testslot-api/internal/models"
	"github.com/noah-isme/sma-testslot-api/internal/repository"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
)

// SchedulingServiceParams groups constructor dependencies.
type SchedulingServiceParams struct {
	Store     repository.GraphStore
	Guard     *ConflictGuard
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
}

// SchedulingService commits a chosen period as a Test owned by a teacher.
type SchedulingService struct {
	store     repository.GraphStore
	guard     *ConflictGuard
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
}

// NewSchedulingService constructs a SchedulingService.
func NewSchedulingService(params SchedulingServiceParams) *SchedulingService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	guard := params.Guard
	if guard == nil {
		guard = NewConflictGuard(params.Store)
	}
	return &SchedulingService{
		store:     params.Store,
		guard:     guard,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
	}
}

// ScheduleTest creates the Test and its SCHEDULES_TEST link in one write
// transaction, finding or creating the teacher by name. The period is trusted
// to come from a prior ResolvePeriods call for the same subject and date.
func (s *SchedulingService) ScheduleTest(ctx context.Context, req dto.ScheduleTestRequest) (*models.ScheduledTest, error) {
	req.Teacher = strings.TrimSpace(req.Teacher)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Date = strings.TrimSpace(req.Date)
	req.Period = strings.TrimSpace(req.Period)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	err := s.store.Write(ctx, func(tx repository.GraphTx) error {
		if err := tx.LockTestKey(ctx, req.Subject, req.Date); err != nil {
			return appErrors.StoreUnavailable(err, "failed to lock subject and date")
		}
		conflict, err := s.guard.HasConflict(ctx, tx, req.Subject, req.Date)
		if err != nil {
			return err
		}
		if conflict {
			return appErrors.ErrAlreadyScheduled
		}

		teacher, err := tx.MergeTeacher(ctx, req.Teacher)
		if err != nil {
			return appErrors.StoreUnavailable(err, "failed to resolve teacher")
		}
		test := &models.Test{Subject: req.Subject, Date: req.Date, Period: req.Period}
		if err := tx.CreateTest(ctx, test); err != nil {
			return err
		}
		if err := tx.LinkScheduledTest(ctx, teacher, test); err != nil {
			return appErrors.StoreUnavailable(err, "failed to link test to teacher")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrTestExists) {
			s.metrics.RecordConflict("schedule")
			return nil, appErrors.Wrap(err, appErrors.ErrAlreadyScheduled.Code, appErrors.ErrAlreadyScheduled.Status, appErrors.ErrAlreadyScheduled.Message)
		}
		if errors.Is(err, appErrors.ErrAlreadyScheduled) {
			s.metrics.RecordConflict("schedule")
			return nil, appErrors.ErrAlreadyScheduled
		}
		return nil, storeError(err, "failed to schedule test")
	}

	s.metrics.RecordTestScheduled()
	// A failed bump puts the cache into bypass; the commit itself stands.
	_ = s.cache.BumpGeneration(ctx, rosterGenerationKey, rosterCachePattern)

	return &models.ScheduledTest{
		Teacher: req.Teacher,
		Subject: req.Subject,
		Date:    req.Date,
		Period:  req.Period,
	}, nil
}

func (s *SchedulingService) validate(req dto.ScheduleTestRequest) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Field() == "Date" && fe.Tag() == "datetime" {
				return appErrors.Wrap(err, appErrors.ErrInvalidDate.Code, appErrors.ErrInvalidDate.Status, "date must use the YYYY-MM-DD format")
			}
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "teacher, subject, date and period are required")
}
