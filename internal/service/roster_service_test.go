package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-testslot-api/internal/models"
	"github.com/noah-isme/sma-testslot-api/internal/repository"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
)

func TestRosterListTeachersSortedUnique(t *testing.T) {
	store := seedCalculus()
	store.addTeaching("Dr. Anand M")
	roster := NewRosterService(store, nil, 0)

	teachers, err := roster.ListTeachers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dr. Anand M", "Dr. K Ilango", "Dr. Selar E"}, teachers)
}

func TestRosterListCoursesDeduplicates(t *testing.T) {
	roster := NewRosterService(seedCalculus(), nil, 0)

	courses, err := roster.ListCourses(context.Background(), "Dr. Selar E")
	require.NoError(t, err)
	assert.Equal(t, []string{"Calculus", "Calculus MATLAB"}, courses)
}

func TestRosterListCoursesUnknownTeacherIsEmpty(t *testing.T) {
	roster := NewRosterService(seedCalculus(), nil, 0)

	courses, err := roster.ListCourses(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Empty(t, courses)

	_, err = roster.ListCourses(context.Background(), "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRosterListScheduledTestsOrderedByDate(t *testing.T) {
	store := newFakeGraphStore()
	for i, date := range []string{"2025-04-02", "2025-03-17", "2025-03-31", "2025-03-10"} {
		id := "t" + string(rune('a'+i))
		store.state.tests = append(store.state.tests, models.Test{ID: id, Subject: "Subject " + date, Date: date, Period: "Slot 1"})
		store.state.scheduled[id] = "Dr. Selar E"
	}
	roster := NewRosterService(store, nil, 0)

	tests, err := roster.ListScheduledTests(context.Background())
	require.NoError(t, err)
	var dates []string
	for _, test := range tests {
		dates = append(dates, test.Date)
	}
	assert.Equal(t, []string{"2025-03-10", "2025-03-17", "2025-03-31", "2025-04-02"}, dates)
}

func TestRosterEmptyStoreReturnsEmptySlices(t *testing.T) {
	roster := NewRosterService(newFakeGraphStore(), nil, 0)

	teachers, err := roster.ListTeachers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, teachers)

	tests, err := roster.ListScheduledTests(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tests)
	assert.Empty(t, tests)
}

func TestRosterServesFromCache(t *testing.T) {
	store := seedCalculus()
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	roster := NewRosterService(store, cache, time.Minute)

	_, hit, err := roster.LookupTeachers(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	store.readErr = errors.New("store down")
	teachers, hit, err := roster.LookupTeachers(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"Dr. K Ilango", "Dr. Selar E"}, teachers)
}

func TestRosterStoreFailure(t *testing.T) {
	store := seedCalculus()
	store.readErr = errors.New("store down")
	roster := NewRosterService(store, nil, 0)

	_, err := roster.ListTeachers(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
	_, err = roster.ListCourses(context.Background(), "Dr. Selar E")
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
	_, err = roster.ListScheduledTests(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
}

// readHookStore runs afterRead once, right after the wrapped store's next
// Read returns and before the caller sees the result.
type readHookStore struct {
	*fakeGraphStore
	afterRead func()
}

func (s *readHookStore) Read(ctx context.Context, fn func(tx repository.GraphTx) error) error {
	err := s.fakeGraphStore.Read(ctx, fn)
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
	return err
}

func TestRosterReadOverlappingScheduleIsNotServedStale(t *testing.T) {
	inner := seedCalculus()
	store := &readHookStore{fakeGraphStore: inner}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	roster := NewRosterService(store, cache, time.Minute)
	scheduling := NewSchedulingService(SchedulingServiceParams{Store: inner, Cache: cache})

	store.afterRead = func() {
		_, err := scheduling.ScheduleTest(context.Background(), scenarioRequest())
		require.NoError(t, err)
	}
	tests, hit, err := roster.LookupScheduledTests(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, tests)

	tests, hit, err = roster.LookupScheduledTests(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, tests, 1)
	assert.Equal(t, "Dr. Selar E", tests[0].Teacher)

	tests, hit, err = roster.LookupScheduledTests(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, tests, 1)
}

func TestRosterBypassesCacheAfterFailedBump(t *testing.T) {
	store := seedCalculus()
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	roster := NewRosterService(store, cache, time.Minute)
	scheduling := NewSchedulingService(SchedulingServiceParams{Store: store, Cache: cache})

	_, _, err := roster.LookupScheduledTests(context.Background())
	require.NoError(t, err)

	repo.incrErr = errors.New("redis down")
	_, err = scheduling.ScheduleTest(context.Background(), scenarioRequest())
	require.NoError(t, err)

	tests, hit, err := roster.LookupScheduledTests(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, tests, 1)
}
