package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/sma-testslot-api/internal/models"
)

// ErrTestExists is returned when the store rejects a second Test for the same
// subject and date, either from its uniqueness constraint or a concurrent commit.
var ErrTestExists = errors.New("test already exists for subject and date")

// GraphTx is a unit of work against the timetable graph. Every read observes
// the writes made earlier in the same unit.
type GraphTx interface {
	// TestExists reports whether a Test with exactly this subject and date exists.
	TestExists(ctx context.Context, subject, date string) (bool, error)
	// SessionsOn returns the sessions of the course named subject that meet on
	// day, ordered by slot label.
	SessionsOn(ctx context.Context, subject, day string) ([]models.ClassSession, error)
	// LockTestKey serialises writers racing on the same subject and date for
	// the rest of the unit of work.
	LockTestKey(ctx context.Context, subject, date string) error
	// MergeTeacher finds the teacher by name or creates it.
	MergeTeacher(ctx context.Context, name string) (*models.Teacher, error)
	// CreateTest unconditionally creates a Test node.
	CreateTest(ctx context.Context, test *models.Test) error
	// LinkScheduledTest binds teacher -[:SCHEDULES_TEST]-> test.
	LinkScheduledTest(ctx context.Context, teacher *models.Teacher, test *models.Test) error
	// TeacherNames lists distinct teacher names ascending.
	TeacherNames(ctx context.Context) ([]string, error)
	// CoursesTaughtBy lists distinct names of courses the teacher TEACHES, ascending.
	CoursesTaughtBy(ctx context.Context, teacher string) ([]string, error)
	// ScheduledTests lists every Test with the teacher who scheduled it, by date.
	ScheduledTests(ctx context.Context) ([]models.ScheduledTest, error)
}

// GraphStore hands out units of work. Read and Write commit when fn returns
// nil and roll back otherwise; the underlying session is released on every path.
type GraphStore interface {
	Read(ctx context.Context, fn func(tx GraphTx) error) error
	Write(ctx context.Context, fn func(tx GraphTx) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
