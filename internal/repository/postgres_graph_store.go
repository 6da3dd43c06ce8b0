package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-testslot-api/internal/models"
)

const pgUniqueViolation = "23505"

// QueryObserver receives per-query timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// PostgresGraphStore keeps the timetable graph in relational tables: node
// tables joined through edge tables and foreign keys.
type PostgresGraphStore struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewPostgresGraphStore constructs a PostgresGraphStore. observer may be nil.
func NewPostgresGraphStore(db *sqlx.DB, observer QueryObserver) *PostgresGraphStore {
	return &PostgresGraphStore{db: db, observer: observer}
}

// Read runs fn inside a read-only transaction.
func (s *PostgresGraphStore) Read(ctx context.Context, fn func(tx GraphTx) error) error {
	return s.withTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true}, fn)
}

// Write runs fn inside a read-committed read/write transaction.
func (s *PostgresGraphStore) Write(ctx context.Context, fn func(tx GraphTx) error) error {
	return s.withTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

func (s *PostgresGraphStore) withTx(ctx context.Context, opts *sql.TxOptions, fn func(tx GraphTx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin graph transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&pgGraphTx{tx: tx, observer: s.observer}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit graph transaction: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *PostgresGraphStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresGraphStore) Close(context.Context) error {
	return s.db.Close()
}

type pgGraphTx struct {
	tx       *sqlx.Tx
	observer QueryObserver
}

func (t *pgGraphTx) observe(label string, start time.Time) {
	if t.observer != nil {
		t.observer.ObserveDBQuery(label, time.Since(start))
	}
}

func (t *pgGraphTx) TestExists(ctx context.Context, subject, date string) (bool, error) {
	defer t.observe("test_exists", time.Now())
	const query = `SELECT EXISTS (SELECT 1 FROM tests WHERE subject = $1 AND date = $2)`
	var exists bool
	if err := t.tx.GetContext(ctx, &exists, query, subject, date); err != nil {
		return false, fmt.Errorf("check test existence: %w", err)
	}
	return exists, nil
}

func (t *pgGraphTx) SessionsOn(ctx context.Context, subject, day string) ([]models.ClassSession, error) {
	defer t.observe("sessions_on", time.Now())
	const query = `SELECT s.id, s.course_id, s.day, s.slot, s.time_range, s.room, s.branch, s.semester, s.section
FROM class_sessions s
JOIN courses c ON c.id = s.course_id
WHERE c.name = $1 AND s.day = $2
ORDER BY s.slot COLLATE "C"`
	var sessions []models.ClassSession
	if err := t.tx.SelectContext(ctx, &sessions, query, subject, day); err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	return sessions, nil
}

func (t *pgGraphTx) LockTestKey(ctx context.Context, subject, date string) error {
	defer t.observe("lock_test_key", time.Now())
	const query = `SELECT pg_advisory_xact_lock(hashtext($1 || '|' || $2))`
	if _, err := t.tx.ExecContext(ctx, query, subject, date); err != nil {
		return fmt.Errorf("lock test key: %w", err)
	}
	return nil
}

func (t *pgGraphTx) MergeTeacher(ctx context.Context, name string) (*models.Teacher, error) {
	defer t.observe("merge_teacher", time.Now())
	const query = `INSERT INTO teachers (id, name) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name`
	var teacher models.Teacher
	if err := t.tx.GetContext(ctx, &teacher, query, uuid.NewString(), name); err != nil {
		return nil, fmt.Errorf("merge teacher: %w", err)
	}
	return &teacher, nil
}

func (t *pgGraphTx) CreateTest(ctx context.Context, test *models.Test) error {
	defer t.observe("create_test", time.Now())
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO tests (id, subject, date, period, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := t.tx.ExecContext(ctx, query, test.ID, test.Subject, test.Date, test.Period, test.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrTestExists
		}
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

func (t *pgGraphTx) LinkScheduledTest(ctx context.Context, teacher *models.Teacher, test *models.Test) error {
	defer t.observe("link_scheduled_test", time.Now())
	const query = `INSERT INTO scheduled_tests (teacher_id, test_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := t.tx.ExecContext(ctx, query, teacher.ID, test.ID); err != nil {
		return fmt.Errorf("link scheduled test: %w", err)
	}
	return nil
}

func (t *pgGraphTx) TeacherNames(ctx context.Context) ([]string, error) {
	defer t.observe("teacher_names", time.Now())
	const query = `SELECT name FROM teachers ORDER BY name COLLATE "C"`
	names := []string{}
	if err := t.tx.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return names, nil
}

func (t *pgGraphTx) CoursesTaughtBy(ctx context.Context, teacher string) ([]string, error) {
	defer t.observe("courses_taught_by", time.Now())
	const query = `SELECT c.name
FROM teachers t
JOIN teaches tc ON tc.teacher_id = t.id
JOIN courses c ON c.id = tc.course_id
WHERE t.name = $1
GROUP BY c.name
ORDER BY c.name COLLATE "C"`
	courses := []string{}
	if err := t.tx.SelectContext(ctx, &courses, query, teacher); err != nil {
		return nil, fmt.Errorf("list courses for teacher: %w", err)
	}
	return courses, nil
}

func (t *pgGraphTx) ScheduledTests(ctx context.Context) ([]models.ScheduledTest, error) {
	defer t.observe("scheduled_tests", time.Now())
	const query = `SELECT t.name AS teacher, x.subject, x.date, x.period
FROM scheduled_tests st
JOIN teachers t ON t.id = st.teacher_id
JOIN tests x ON x.id = st.test_id
ORDER BY x.date, x.subject COLLATE "C", t.name COLLATE "C"`
	tests := []models.ScheduledTest{}
	if err := t.tx.SelectContext(ctx, &tests, query); err != nil {
		return nil, fmt.Errorf("list scheduled tests: %w", err)
	}
	return tests, nil
}
