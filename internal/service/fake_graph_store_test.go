package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/sma-testslot-api/internal/models"
	"github.com/noah-isme/sma-testslot-api/internal/repository"
)

type fakeGraphState struct {
	teachers  map[string]*models.Teacher
	teaches   map[string][]string
	sessions  map[string][]models.ClassSession
	tests     []models.Test
	scheduled map[string]string
}

func (s fakeGraphState) clone() fakeGraphState {
	out := fakeGraphState{
		teachers:  make(map[string]*models.Teacher, len(s.teachers)),
		teaches:   make(map[string][]string, len(s.teaches)),
		sessions:  s.sessions,
		tests:     append([]models.Test(nil), s.tests...),
		scheduled: make(map[string]string, len(s.scheduled)),
	}
	for k, v := range s.teachers {
		cp := *v
		out.teachers[k] = &cp
	}
	for k, v := range s.teaches {
		out.teaches[k] = append([]string(nil), v...)
	}
	for k, v := range s.scheduled {
		out.scheduled[k] = v
	}
	return out
}

// fakeGraphStore is an in-memory GraphStore. Write units run against a copy of
// the state that replaces the committed state only when fn succeeds.
type fakeGraphStore struct {
	mu    sync.Mutex
	state fakeGraphState

	sessionReads int
	readErr      error
	writeErr     error
	linkErr      error
	seq          int
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{state: fakeGraphState{
		teachers:  map[string]*models.Teacher{},
		teaches:   map[string][]string{},
		sessions:  map[string][]models.ClassSession{},
		scheduled: map[string]string{},
	}}
}

func (f *fakeGraphStore) addSession(course string, session models.ClassSession) {
	f.state.sessions[course] = append(f.state.sessions[course], session)
}

func (f *fakeGraphStore) addTeaching(teacher string, courses ...string) {
	f.state.teachers[teacher] = &models.Teacher{ID: teacher, Name: teacher}
	f.state.teaches[teacher] = append(f.state.teaches[teacher], courses...)
}

func (f *fakeGraphStore) testCount(subject, date string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, test := range f.state.tests {
		if test.Subject == subject && test.Date == date {
			n++
		}
	}
	return n
}

func (f *fakeGraphStore) Read(ctx context.Context, fn func(tx repository.GraphTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return f.readErr
	}
	state := f.state.clone()
	return fn(&fakeGraphTx{store: f, state: &state})
}

func (f *fakeGraphStore) Write(ctx context.Context, fn func(tx repository.GraphTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	state := f.state.clone()
	if err := fn(&fakeGraphTx{store: f, state: &state}); err != nil {
		return err
	}
	f.state = state
	return nil
}

func (f *fakeGraphStore) Ping(context.Context) error  { return nil }
func (f *fakeGraphStore) Close(context.Context) error { return nil }

type fakeGraphTx struct {
	store *fakeGraphStore
	state *fakeGraphState
}

func (t *fakeGraphTx) TestExists(ctx context.Context, subject, date string) (bool, error) {
	for _, test := range t.state.tests {
		if test.Subject == subject && test.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeGraphTx) SessionsOn(ctx context.Context, subject, day string) ([]models.ClassSession, error) {
	t.store.sessionReads++
	var out []models.ClassSession
	for _, session := range t.state.sessions[subject] {
		if session.Day == day {
			out = append(out, session)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

func (t *fakeGraphTx) LockTestKey(ctx context.Context, subject, date string) error { return nil }

func (t *fakeGraphTx) MergeTeacher(ctx context.Context, name string) (*models.Teacher, error) {
	if teacher, ok := t.state.teachers[name]; ok {
		return teacher, nil
	}
	teacher := &models.Teacher{ID: "teacher-" + name, Name: name}
	t.state.teachers[name] = teacher
	return teacher, nil
}

func (t *fakeGraphTx) CreateTest(ctx context.Context, test *models.Test) error {
	t.store.seq++
	test.ID = fmt.Sprintf("test-%d", t.store.seq)
	t.state.tests = append(t.state.tests, *test)
	return nil
}

func (t *fakeGraphTx) LinkScheduledTest(ctx context.Context, teacher *models.Teacher, test *models.Test) error {
	if t.store.linkErr != nil {
		return t.store.linkErr
	}
	t.state.scheduled[test.ID] = teacher.Name
	return nil
}

func (t *fakeGraphTx) TeacherNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(t.state.teachers))
	for name := range t.state.teachers {
		names = append(names, name)
	}
	return names, nil
}

func (t *fakeGraphTx) CoursesTaughtBy(ctx context.Context, teacher string) ([]string, error) {
	return append([]string(nil), t.state.teaches[teacher]...), nil
}

func (t *fakeGraphTx) ScheduledTests(ctx context.Context) ([]models.ScheduledTest, error) {
	out := make([]models.ScheduledTest, 0, len(t.state.tests))
	for _, test := range t.state.tests {
		teacher, ok := t.state.scheduled[test.ID]
		if !ok {
			return nil, errors.New("test without owner")
		}
		out = append(out, models.ScheduledTest{Teacher: teacher, Subject: test.Subject, Date: test.Date, Period: test.Period})
	}
	return out, nil
}

// seedCalculus builds the timetable used across the engine tests: Calculus
// meets on Monday in slots 4 and 2 and on Thursday in slot 10.
func seedCalculus() *fakeGraphStore {
	store := newFakeGraphStore()
	store.addTeaching("Dr. Selar E", "Calculus", "Calculus MATLAB", "Calculus")
	store.addTeaching("Dr. K Ilango", "Physics")
	store.addSession("Calculus", models.ClassSession{Day: "Monday", Slot: "Slot 4", TimeRange: "10:45 am - 11:35 am", Room: "F305"})
	store.addSession("Calculus", models.ClassSession{Day: "Monday", Slot: "Slot 2", TimeRange: "09:00 am - 09:50 am", Room: "F201"})
	store.addSession("Calculus", models.ClassSession{Day: "Thursday", Slot: "Slot 10", TimeRange: "04:10 pm - 05:00 pm", Room: "A101"})
	store.addSession("Calculus", models.ClassSession{Day: "Thursday", Slot: "Slot 9", TimeRange: "03:20 pm - 04:10 pm", Room: "A101"})
	return store
}
