package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/sma-testslot-api/internal/models"
	"github.com/noah-isme/sma-testslot-api/internal/repository"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
)

// Roster entries are keyed by the generation current when their store read
// began; scheduling bumps the generation after each commit. The counter lives
// outside rosterCachePattern so invalidation never resets it.
const (
	rosterGenerationKey = "roster-generation"
	rosterCachePattern  = "roster:*"
	rosterTeachersKey   = "teachers"
	rosterCoursesPrefix = "courses:"
	rosterTestsKey      = "tests"
)

func rosterKey(generation int64, name string) string {
	return fmt.Sprintf("roster:%d:%s", generation, name)
}

// RosterService serves read-only projections of the timetable graph.
type RosterService struct {
	store repository.GraphStore
	cache *CacheService
	ttl   time.Duration
}

// NewRosterService constructs a RosterService. cache may be nil.
func NewRosterService(store repository.GraphStore, cache *CacheService, ttl time.Duration) *RosterService {
	return &RosterService{store: store, cache: cache, ttl: ttl}
}

// ListTeachers returns distinct teacher names ascending.
func (s *RosterService) ListTeachers(ctx context.Context) ([]string, error) {
	names, _, err := s.LookupTeachers(ctx)
	return names, err
}

// ListCourses returns distinct names of courses taught by teacher, ascending.
// An unknown teacher yields an empty list.
func (s *RosterService) ListCourses(ctx context.Context, teacher string) ([]string, error) {
	courses, _, err := s.LookupCourses(ctx, teacher)
	return courses, err
}

// ListScheduledTests returns every scheduled test ascending by date.
func (s *RosterService) ListScheduledTests(ctx context.Context) ([]models.ScheduledTest, error) {
	tests, _, err := s.LookupScheduledTests(ctx)
	return tests, err
}

// LookupTeachers is ListTeachers that also reports whether the cache served it.
func (s *RosterService) LookupTeachers(ctx context.Context) ([]string, bool, error) {
	generation, cached := s.cache.Generation(ctx, rosterGenerationKey)
	key := rosterKey(generation, rosterTeachersKey)
	var names []string
	if cached {
		if hit, _ := s.cache.Get(ctx, key, &names); hit {
			return nonNil(names), true, nil
		}
	}
	err := s.store.Read(ctx, func(tx repository.GraphTx) error {
		var err error
		names, err = tx.TeacherNames(ctx)
		return err
	})
	if err != nil {
		return nil, false, storeError(err, "failed to list teachers")
	}
	names = sortedUnique(names)
	if cached {
		_ = s.cache.Set(ctx, key, names, s.ttl)
	}
	return names, false, nil
}

// LookupCourses is ListCourses that also reports whether the cache served it.
func (s *RosterService) LookupCourses(ctx context.Context, teacher string) ([]string, bool, error) {
	teacher = strings.TrimSpace(teacher)
	if teacher == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	generation, cached := s.cache.Generation(ctx, rosterGenerationKey)
	key := rosterKey(generation, rosterCoursesPrefix+teacher)
	var courses []string
	if cached {
		if hit, _ := s.cache.Get(ctx, key, &courses); hit {
			return nonNil(courses), true, nil
		}
	}
	err := s.store.Read(ctx, func(tx repository.GraphTx) error {
		var err error
		courses, err = tx.CoursesTaughtBy(ctx, teacher)
		return err
	})
	if err != nil {
		return nil, false, storeError(err, "failed to list courses")
	}
	courses = sortedUnique(courses)
	if cached {
		_ = s.cache.Set(ctx, key, courses, s.ttl)
	}
	return courses, false, nil
}

// LookupScheduledTests is ListScheduledTests that also reports whether the
// cache served it.
func (s *RosterService) LookupScheduledTests(ctx context.Context) ([]models.ScheduledTest, bool, error) {
	generation, cached := s.cache.Generation(ctx, rosterGenerationKey)
	key := rosterKey(generation, rosterTestsKey)
	var tests []models.ScheduledTest
	if cached {
		if hit, _ := s.cache.Get(ctx, key, &tests); hit {
			if tests == nil {
				tests = []models.ScheduledTest{}
			}
			return tests, true, nil
		}
	}
	err := s.store.Read(ctx, func(tx repository.GraphTx) error {
		var err error
		tests, err = tx.ScheduledTests(ctx)
		return err
	})
	if err != nil {
		return nil, false, storeError(err, "failed to list scheduled tests")
	}
	if tests == nil {
		tests = []models.ScheduledTest{}
	}
	sort.SliceStable(tests, func(i, j int) bool {
		return tests[i].Date < tests[j].Date
	})
	if cached {
		_ = s.cache.Set(ctx, key, tests, s.ttl)
	}
	return tests, false, nil
}

func sortedUnique(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
