package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/eligibility"
	"github.com/attendr/attendr-api/internal/models"
)

// Monday 09:30 UTC, inside the test course window.
var pollTime = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func classCourse(id string) models.Course {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return models.Course{
		ID:        id,
		Name:      "Algorithms",
		Location:  "Room 101",
		StartTime: &start,
		EndTime:   &end,
	}
}

type stubSchedules struct {
	fn func(studentID string) ([]models.Course, error)
}

func (s stubSchedules) StudentSchedule(_ context.Context, studentID string) ([]models.Course, error) {
	return s.fn(studentID)
}

type stubChecker struct {
	fn func(studentID, courseID string) (bool, error)
}

func (s stubChecker) HasCheckedIn(_ context.Context, studentID, courseID string, _ time.Time) (bool, error) {
	return s.fn(studentID, courseID)
}

type promptRecorder struct {
	mu      sync.Mutex
	calls   []string
	block   chan struct{}
	started chan struct{}
}

func (r *promptRecorder) Prompt(_ context.Context, studentID string, course models.Course) error {
	r.mu.Lock()
	r.calls = append(r.calls, studentID+":"+course.ID)
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	return nil
}

func (r *promptRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestPoller(schedules stubSchedules, checker stubChecker, prompt *promptRecorder, students ...string) *Poller {
	p := New(schedules, checker, prompt, eligibility.NewEvaluator(eligibility.WindowModeWeekly), nil,
		Config{Interval: time.Minute, TickTimeout: time.Second, StudentIDs: students}, zap.NewNop())
	p.now = func() time.Time { return pollTime }
	return p
}

func TestPollerPromptsStudentInOpenWindow(t *testing.T) {
	schedules := stubSchedules{fn: func(string) ([]models.Course, error) {
		return []models.Course{classCourse("course-1")}, nil
	}}
	checker := stubChecker{fn: func(string, string) (bool, error) { return false, nil }}
	prompt := &promptRecorder{}

	p := newTestPoller(schedules, checker, prompt, "student-1")
	p.tick(context.Background())
	p.wg.Wait()

	require.Equal(t, 1, prompt.count())
	assert.Equal(t, "student-1:course-1", prompt.calls[0])
}

func TestPollerDoesNotStackPrompts(t *testing.T) {
	schedules := stubSchedules{fn: func(string) ([]models.Course, error) {
		return []models.Course{classCourse("course-1")}, nil
	}}
	checker := stubChecker{fn: func(string, string) (bool, error) { return false, nil }}
	prompt := &promptRecorder{block: make(chan struct{}), started: make(chan struct{}, 1)}

	p := newTestPoller(schedules, checker, prompt, "student-1")
	p.tick(context.Background())
	<-prompt.started

	// Second cycle while the first prompt is still awaiting confirmation.
	p.tick(context.Background())
	assert.Equal(t, 1, prompt.count())

	snapshot := p.Snapshot()
	assert.Equal(t, StatePrompting, snapshot.Students["student-1"])

	close(prompt.block)
	p.wg.Wait()
	assert.Equal(t, StateIdle, p.Snapshot().Students["student-1"])
}

func TestPollerSkipsCheckedInStudent(t *testing.T) {
	schedules := stubSchedules{fn: func(string) ([]models.Course, error) {
		return []models.Course{classCourse("course-1")}, nil
	}}
	checker := stubChecker{fn: func(string, string) (bool, error) { return true, nil }}
	prompt := &promptRecorder{}

	p := newTestPoller(schedules, checker, prompt, "student-1")
	p.tick(context.Background())
	p.wg.Wait()

	assert.Zero(t, prompt.count())
}

func TestPollerSkipsClosedWindow(t *testing.T) {
	schedules := stubSchedules{fn: func(string) ([]models.Course, error) {
		course := classCourse("course-1")
		start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) // Tuesday
		end := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
		course.StartTime = &start
		course.EndTime = &end
		return []models.Course{course}, nil
	}}
	checker := stubChecker{fn: func(string, string) (bool, error) {
		t.Fatal("check-in state should not be queried outside the window")
		return false, nil
	}}
	prompt := &promptRecorder{}

	p := newTestPoller(schedules, checker, prompt, "student-1")
	p.tick(context.Background())
	p.wg.Wait()

	assert.Zero(t, prompt.count())
}

func TestPollerSkipsStudentOnScheduleError(t *testing.T) {
	schedules := stubSchedules{fn: func(studentID string) ([]models.Course, error) {
		if studentID == "student-1" {
			return nil, errors.New("store down")
		}
		return []models.Course{classCourse("course-1")}, nil
	}}
	checker := stubChecker{fn: func(string, string) (bool, error) { return false, nil }}
	prompt := &promptRecorder{}

	p := newTestPoller(schedules, checker, prompt, "student-1", "student-2")
	p.tick(context.Background())
	p.wg.Wait()

	require.Equal(t, 1, prompt.count())
	assert.Equal(t, "student-2:course-1", prompt.calls[0])
}

func TestPollerCheckErrorSkipsCourseOnly(t *testing.T) {
	schedules := stubSchedules{fn: func(string) ([]models.Course, error) {
		return []models.Course{classCourse("course-1"), classCourse("course-2")}, nil
	}}
	checker := stubChecker{fn: func(_, courseID string) (bool, error) {
		if courseID == "course-1" {
			return false, errors.New("redis down")
		}
		return false, nil
	}}
	prompt := &promptRecorder{}

	p := newTestPoller(schedules, checker, prompt, "student-1")
	p.tick(context.Background())
	p.wg.Wait()

	require.Equal(t, 1, prompt.count())
	assert.Equal(t, "student-1:course-2", prompt.calls[0])
}

func TestPollerStartStop(t *testing.T) {
	schedules := stubSchedules{fn: func(string) ([]models.Course, error) {
		return nil, nil
	}}
	checker := stubChecker{fn: func(string, string) (bool, error) { return false, nil }}
	prompt := &promptRecorder{}

	p := newTestPoller(schedules, checker, prompt, "student-1")
	p.Start(context.Background())
	assert.True(t, p.Snapshot().Running)

	p.Start(context.Background()) // idempotent
	p.Stop()
	assert.False(t, p.Snapshot().Running)
	p.Stop() // idempotent
}
