package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/noah-isme/sma-testslot-api/internal/models"
)

const (
	neo4jConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"
	testKeyConstraint        = "test_subject_date"
)

var neo4jConstraints = []string{
	`CREATE CONSTRAINT teacher_name IF NOT EXISTS FOR (t:Teacher) REQUIRE t.name IS UNIQUE`,
	`CREATE CONSTRAINT ` + testKeyConstraint + ` IF NOT EXISTS FOR (t:Test) REQUIRE (t.subject, t.date) IS UNIQUE`,
}

// Neo4jGraphStore runs the timetable graph natively on one named Neo4j database.
type Neo4jGraphStore struct {
	driver   neo4j.DriverWithContext
	database string
	observer QueryObserver
}

// NewNeo4jGraphStore constructs a Neo4jGraphStore. observer may be nil.
func NewNeo4jGraphStore(driver neo4j.DriverWithContext, database string, observer QueryObserver) *Neo4jGraphStore {
	return &Neo4jGraphStore{driver: driver, database: database, observer: observer}
}

// EnsureConstraints installs the uniqueness constraints backing teacher
// identity and the one-test-per-subject-per-date rule.
func (s *Neo4jGraphStore) EnsureConstraints(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx) //nolint:errcheck

	for _, cypher := range neo4jConstraints {
		result, err := session.Run(ctx, cypher, nil)
		if err != nil {
			return fmt.Errorf("create neo4j constraint: %w", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("create neo4j constraint: %w", err)
		}
	}
	return nil
}

// Read runs fn inside an explicit read transaction.
func (s *Neo4jGraphStore) Read(ctx context.Context, fn func(tx GraphTx) error) error {
	return s.withTx(ctx, neo4j.AccessModeRead, fn)
}

// Write runs fn inside an explicit write transaction. Transient failures are
// surfaced, not retried.
func (s *Neo4jGraphStore) Write(ctx context.Context, fn func(tx GraphTx) error) error {
	return s.withTx(ctx, neo4j.AccessModeWrite, fn)
}

func (s *Neo4jGraphStore) withTx(ctx context.Context, mode neo4j.AccessMode, fn func(tx GraphTx) error) (err error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: mode})
	defer session.Close(ctx) //nolint:errcheck

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("begin graph transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&neo4jGraphTx{tx: tx, observer: s.observer}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		if isTestKeyViolation(err) {
			return ErrTestExists
		}
		return fmt.Errorf("commit graph transaction: %w", err)
	}
	return nil
}

// Ping verifies the driver can reach the server.
func (s *Neo4jGraphStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close shuts the driver down.
func (s *Neo4jGraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type neo4jGraphTx struct {
	tx       neo4j.ExplicitTransaction
	observer QueryObserver
}

func (t *neo4jGraphTx) observe(label string, start time.Time) {
	if t.observer != nil {
		t.observer.ObserveDBQuery(label, time.Since(start))
	}
}

func (t *neo4jGraphTx) collect(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

func (t *neo4jGraphTx) exec(ctx context.Context, cypher string, params map[string]any) error {
	result, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

func (t *neo4jGraphTx) TestExists(ctx context.Context, subject, date string) (bool, error) {
	defer t.observe("test_exists", time.Now())
	records, err := t.collect(ctx, `
MATCH (test:Test {date:$date, subject:$subject})
RETURN test LIMIT 1`, map[string]any{"date": date, "subject": subject})
	if err != nil {
		return false, fmt.Errorf("check test existence: %w", err)
	}
	return len(records) > 0, nil
}

func (t *neo4jGraphTx) SessionsOn(ctx context.Context, subject, day string) ([]models.ClassSession, error) {
	defer t.observe("sessions_on", time.Now())
	records, err := t.collect(ctx, `
MATCH (c:Course {name:$subject})-[:HAS_SESSION]->(s:ClassSession {day:$day})
RETURN elementId(s) AS id, elementId(c) AS course_id, s.day AS day, s.slot AS slot,
       s.time_range AS time_range, s.room AS room, s.branch AS branch,
       s.semester AS semester, s.section AS section
ORDER BY s.slot`, map[string]any{"subject": subject, "day": day})
	if err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	sessions := make([]models.ClassSession, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, models.ClassSession{
			ID:        recordString(record, "id"),
			CourseID:  recordString(record, "course_id"),
			Day:       recordString(record, "day"),
			Slot:      recordString(record, "slot"),
			TimeRange: recordString(record, "time_range"),
			Room:      recordString(record, "room"),
			Branch:    recordString(record, "branch"),
			Semester:  recordString(record, "semester"),
			Section:   recordString(record, "section"),
		})
	}
	return sessions, nil
}

// LockTestKey takes a write lock on the course node; writers for the same
// subject queue behind it until the transaction ends.
func (t *neo4jGraphTx) LockTestKey(ctx context.Context, subject, _ string) error {
	defer t.observe("lock_test_key", time.Now())
	if err := t.exec(ctx, `
MATCH (c:Course {name:$subject})
SET c._lock = true
REMOVE c._lock`, map[string]any{"subject": subject}); err != nil {
		return fmt.Errorf("lock test key: %w", err)
	}
	return nil
}

func (t *neo4jGraphTx) MergeTeacher(ctx context.Context, name string) (*models.Teacher, error) {
	defer t.observe("merge_teacher", time.Now())
	records, err := t.collect(ctx, `
MERGE (t:Teacher {name:$name})
ON CREATE SET t.id = $id
RETURN coalesce(t.id, elementId(t)) AS id, t.name AS name`, map[string]any{"name": name, "id": uuid.NewString()})
	if err != nil {
		return nil, fmt.Errorf("merge teacher: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("merge teacher: no record returned")
	}
	return &models.Teacher{ID: recordString(records[0], "id"), Name: recordString(records[0], "name")}, nil
}

func (t *neo4jGraphTx) CreateTest(ctx context.Context, test *models.Test) error {
	defer t.observe("create_test", time.Now())
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}
	err := t.exec(ctx, `
CREATE (test:Test {id:$id, subject:$subject, date:$date, period:$period, created_at:$created_at})`,
		map[string]any{
			"id":         test.ID,
			"subject":    test.Subject,
			"date":       test.Date,
			"period":     test.Period,
			"created_at": test.CreatedAt,
		})
	if err != nil {
		if isTestKeyViolation(err) {
			return ErrTestExists
		}
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

func (t *neo4jGraphTx) LinkScheduledTest(ctx context.Context, teacher *models.Teacher, test *models.Test) error {
	defer t.observe("link_scheduled_test", time.Now())
	if err := t.exec(ctx, `
MATCH (t:Teacher {name:$teacher}), (test:Test {id:$id})
MERGE (t)-[:SCHEDULES_TEST]->(test)`, map[string]any{"teacher": teacher.Name, "id": test.ID}); err != nil {
		return fmt.Errorf("link scheduled test: %w", err)
	}
	return nil
}

func (t *neo4jGraphTx) TeacherNames(ctx context.Context) ([]string, error) {
	defer t.observe("teacher_names", time.Now())
	records, err := t.collect(ctx, `MATCH (t:Teacher) RETURN DISTINCT t.name AS name ORDER BY name`, nil)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return recordStrings(records, "name"), nil
}

func (t *neo4jGraphTx) CoursesTaughtBy(ctx context.Context, teacher string) ([]string, error) {
	defer t.observe("courses_taught_by", time.Now())
	records, err := t.collect(ctx, `
MATCH (t:Teacher {name:$name})-[:TEACHES]->(c:Course)
RETURN DISTINCT c.name AS course ORDER BY course`, map[string]any{"name": teacher})
	if err != nil {
		return nil, fmt.Errorf("list courses for teacher: %w", err)
	}
	return recordStrings(records, "course"), nil
}

func (t *neo4jGraphTx) ScheduledTests(ctx context.Context) ([]models.ScheduledTest, error) {
	defer t.observe("scheduled_tests", time.Now())
	records, err := t.collect(ctx, `
MATCH (t:Teacher)-[:SCHEDULES_TEST]->(test:Test)
RETURN t.name AS teacher, test.subject AS subject, test.date AS date, test.period AS period
ORDER BY date, subject, teacher`, nil)
	if err != nil {
		return nil, fmt.Errorf("list scheduled tests: %w", err)
	}
	tests := make([]models.ScheduledTest, 0, len(records))
	for _, record := range records {
		tests = append(tests, models.ScheduledTest{
			Teacher: recordString(record, "teacher"),
			Subject: recordString(record, "subject"),
			Date:    recordString(record, "date"),
			Period:  recordString(record, "period"),
		})
	}
	return tests, nil
}

func recordString(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func recordStrings(records []*neo4j.Record, key string) []string {
	values := make([]string, 0, len(records))
	for _, record := range records {
		values = append(values, recordString(record, key))
	}
	return values
}

// isTestKeyViolation reports a uniqueness violation on (Test.subject,
// Test.date). Violations of other constraints, such as teacher_name, are not
// scheduling conflicts and stay ordinary store errors.
func isTestKeyViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	if !errors.As(err, &neoErr) || neoErr.Code != neo4jConstraintViolation {
		return false
	}
	return strings.Contains(neoErr.Msg, testKeyConstraint) || strings.Contains(neoErr.Msg, "label `Test`")
}
