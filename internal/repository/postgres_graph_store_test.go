package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-testslot-api/internal/models"
)

func newGraphStoreMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type recordingObserver struct {
	labels []string
}

func (r *recordingObserver) ObserveDBQuery(label string, _ time.Duration) {
	r.labels = append(r.labels, label)
}

func TestPostgresGraphStoreSessionsOn(t *testing.T) {
	db, mock, cleanup := newGraphStoreMock(t)
	defer cleanup()
	observer := &recordingObserver{}
	store := NewPostgresGraphStore(db, observer)

	rows := sqlmock.NewRows([]string{"id", "course_id", "day", "slot", "time_range", "room", "branch", "semester", "section"}).
		AddRow("s1", "c1", "Monday", "Slot 4", "10:45 am - 11:35 am", "F305", "CSE", "1st Semester", "Section F")
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.course_id, s.day, s.slot")).
		WithArgs("Calculus", "Monday").
		WillReturnRows(rows)
	mock.ExpectCommit()

	var sessions []models.ClassSession
	err := store.Read(context.Background(), func(tx GraphTx) error {
		var err error
		sessions, err = tx.SessionsOn(context.Background(), "Calculus", "Monday")
		return err
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Slot 4 (10:45 am - 11:35 am) - F305", sessions[0].Period())
	assert.Equal(t, []string{"sessions_on"}, observer.labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStoreTestExists(t *testing.T) {
	db, mock, cleanup := newGraphStoreMock(t)
	defer cleanup()
	store := NewPostgresGraphStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM tests WHERE subject = $1 AND date = $2)")).
		WithArgs("Calculus", "2025-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	var exists bool
	err := store.Read(context.Background(), func(tx GraphTx) error {
		var err error
		exists, err = tx.TestExists(context.Background(), "Calculus", "2025-03-10")
		return err
	})
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStoreScheduleCommit(t *testing.T) {
	db, mock, cleanup := newGraphStoreMock(t)
	defer cleanup()
	store := NewPostgresGraphStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WithArgs("Calculus", "2025-03-17").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO teachers (id, name)")).
		WithArgs(sqlmock.AnyArg(), "Dr. Selar E").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "Dr. Selar E"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tests (id, subject, date, period, created_at)")).
		WithArgs(sqlmock.AnyArg(), "Calculus", "2025-03-17", "Slot 4 (10:45 am - 11:35 am) - F305", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_tests (teacher_id, test_id)")).
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Write(context.Background(), func(tx GraphTx) error {
		ctx := context.Background()
		if err := tx.LockTestKey(ctx, "Calculus", "2025-03-17"); err != nil {
			return err
		}
		teacher, err := tx.MergeTeacher(ctx, "Dr. Selar E")
		if err != nil {
			return err
		}
		test := &models.Test{Subject: "Calculus", Date: "2025-03-17", Period: "Slot 4 (10:45 am - 11:35 am) - F305"}
		if err := tx.CreateTest(ctx, test); err != nil {
			return err
		}
		assert.NotEmpty(t, test.ID)
		return tx.LinkScheduledTest(ctx, teacher, test)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStoreUniqueViolationRollsBack(t *testing.T) {
	db, mock, cleanup := newGraphStoreMock(t)
	defer cleanup()
	store := NewPostgresGraphStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tests")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := store.Write(context.Background(), func(tx GraphTx) error {
		return tx.CreateTest(context.Background(), &models.Test{Subject: "Calculus", Date: "2025-03-17", Period: "p"})
	})
	assert.True(t, errors.Is(err, ErrTestExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStoreCallbackErrorRollsBack(t *testing.T) {
	db, mock, cleanup := newGraphStoreMock(t)
	defer cleanup()
	store := NewPostgresGraphStore(db, nil)

	sentinel := errors.New("abort")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.Write(context.Background(), func(tx GraphTx) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStoreBeginFailure(t *testing.T) {
	db, mock, cleanup := newGraphStoreMock(t)
	defer cleanup()
	store := NewPostgresGraphStore(db, nil)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := store.Read(context.Background(), func(tx GraphTx) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin graph transaction")
}

func TestPostgresGraphStoreRosterQueries(t *testing.T) {
	db, mock, cleanup := newGraphStoreMock(t)
	defer cleanup()
	store := NewPostgresGraphStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM teachers")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Dr. K Ilango").AddRow("Dr. Selar E"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.name")).
		WithArgs("Dr. Selar E").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Calculus").AddRow("Calculus MATLAB"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.name AS teacher, x.subject, x.date, x.period")).
		WillReturnRows(sqlmock.NewRows([]string{"teacher", "subject", "date", "period"}).
			AddRow("Dr. Selar E", "Calculus", "2025-03-17", "Slot 4 (10:45 am - 11:35 am) - F305"))
	mock.ExpectCommit()

	err := store.Read(context.Background(), func(tx GraphTx) error {
		ctx := context.Background()
		teachers, err := tx.TeacherNames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Dr. K Ilango", "Dr. Selar E"}, teachers)

		courses, err := tx.CoursesTaughtBy(ctx, "Dr. Selar E")
		require.NoError(t, err)
		assert.Equal(t, []string{"Calculus", "Calculus MATLAB"}, courses)

		tests, err := tx.ScheduledTests(ctx)
		require.NoError(t, err)
		require.Len(t, tests, 1)
		assert.Equal(t, "Dr. Selar E", tests[0].Teacher)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
