package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/eligibility"
	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

var classTime = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

type mockCourseRepo struct {
	courses map[string]models.Course
	err     error
}

func (m *mockCourseRepo) FindByID(_ context.Context, id string) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockLedger struct {
	existing map[string]bool
	inserted []*models.AttendanceLog
	err      error
}

func ledgerKey(studentID, courseID string) string {
	return studentID + ":" + courseID
}

func (m *mockLedger) ExistsForDay(_ context.Context, studentID, courseID string, _ time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existing[ledgerKey(studentID, courseID)], nil
}

func (m *mockLedger) InsertOnce(_ context.Context, record *models.AttendanceLog) (*models.AttendanceLog, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	key := ledgerKey(record.StudentID, record.CourseID)
	if m.existing[key] {
		return nil, false, nil
	}
	if m.existing == nil {
		m.existing = make(map[string]bool)
	}
	m.existing[key] = true
	record.ID = "log-1"
	m.inserted = append(m.inserted, record)
	return record, true, nil
}

type mockMarker struct {
	marked  []string
	checked map[string]bool
	err     error
}

func (m *mockMarker) MarkCheckedIn(_ context.Context, studentID, courseID string, _ time.Time) error {
	m.marked = append(m.marked, ledgerKey(studentID, courseID))
	return m.err
}

func (m *mockMarker) HasCheckedIn(_ context.Context, studentID, courseID string, _ time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.checked[ledgerKey(studentID, courseID)], nil
}

type mockPromptRemover struct {
	deleted []string
}

func (m *mockPromptRemover) Delete(_ context.Context, studentID, courseID string) error {
	m.deleted = append(m.deleted, ledgerKey(studentID, courseID))
	return nil
}

type stubVerifier struct {
	approve bool
	err     error
}

func (v stubVerifier) Verify(_ context.Context, _ string) (bool, error) {
	return v.approve, v.err
}

func openCourse(id string) models.Course {
	start := classTime.Add(-30 * time.Minute)
	end := classTime.Add(30 * time.Minute)
	return models.Course{
		ID:        id,
		Name:      "Algorithms",
		Location:  "Room 101",
		StartTime: &start,
		EndTime:   &end,
	}
}

func newCheckInService(courses *mockCourseRepo, ledger *mockLedger, marker *mockMarker, prompts *mockPromptRemover, verifier Verifier) *CheckInService {
	var markerIface checkInMarker
	if marker != nil {
		markerIface = marker
	}
	var promptsIface promptRemover
	if prompts != nil {
		promptsIface = prompts
	}
	svc := NewCheckInService(courses, ledger, markerIface, promptsIface,
		eligibility.NewEvaluator(eligibility.WindowModeAbsolute), verifier, nil, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return classTime }
	return svc
}

func TestCheckInRecordsAttendance(t *testing.T) {
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": openCourse("course-1")}}
	ledger := &mockLedger{}
	marker := &mockMarker{}
	svc := newCheckInService(courses, ledger, marker, nil, nil)

	record, err := svc.CheckIn(context.Background(), CheckInRequest{StudentID: "student-1", CourseID: "course-1"})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "student-1", record.StudentID)
	assert.True(t, record.Present)
	assert.Equal(t, models.DayOf(classTime), record.Day)
	assert.Equal(t, []string{"student-1:course-1"}, marker.marked)
}

func TestCheckInRejectsMissingFields(t *testing.T) {
	svc := newCheckInService(&mockCourseRepo{}, &mockLedger{}, nil, nil, nil)

	_, err := svc.CheckIn(context.Background(), CheckInRequest{StudentID: "student-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Missing studentId or courseId", appErr.Message)
}

func TestCheckInUnknownCourse(t *testing.T) {
	svc := newCheckInService(&mockCourseRepo{}, &mockLedger{}, nil, nil, nil)

	_, err := svc.CheckIn(context.Background(), CheckInRequest{StudentID: "student-1", CourseID: "missing"})
	assert.Equal(t, appErrors.ErrCourseNotFound, err)
}

func TestCheckInOutsideWindow(t *testing.T) {
	course := openCourse("course-1")
	late := classTime.Add(2 * time.Hour)
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": course}}
	svc := newCheckInService(courses, &mockLedger{}, nil, nil, nil)
	svc.now = func() time.Time { return late }

	_, err := svc.CheckIn(context.Background(), CheckInRequest{StudentID: "student-1", CourseID: "course-1"})
	assert.Equal(t, appErrors.ErrOutOfWindow, err)
}

func TestCheckInCourseWithoutWindow(t *testing.T) {
	course := openCourse("course-1")
	course.StartTime = nil
	course.EndTime = nil
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": course}}
	svc := newCheckInService(courses, &mockLedger{}, nil, nil, nil)

	_, err := svc.CheckIn(context.Background(), CheckInRequest{StudentID: "student-1", CourseID: "course-1"})
	assert.Equal(t, appErrors.ErrOutOfWindow, err)
}

func TestCheckInDuplicateSameDay(t *testing.T) {
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": openCourse("course-1")}}
	ledger := &mockLedger{existing: map[string]bool{"student-1:course-1": true}}
	svc := newCheckInService(courses, ledger, nil, nil, nil)

	_, err := svc.CheckIn(context.Background(), CheckInRequest{StudentID: "student-1", CourseID: "course-1"})
	assert.Equal(t, appErrors.ErrAlreadyCheckedIn, err)
}

func TestCheckInStoreFailure(t *testing.T) {
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": openCourse("course-1")}}
	ledger := &mockLedger{err: errors.New("connection refused")}
	svc := newCheckInService(courses, ledger, nil, nil, nil)

	_, err := svc.CheckIn(context.Background(), CheckInRequest{StudentID: "student-1", CourseID: "course-1"})
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestConfirmRecordsAndClearsPrompt(t *testing.T) {
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": openCourse("course-1")}}
	ledger := &mockLedger{}
	prompts := &mockPromptRemover{}
	svc := newCheckInService(courses, ledger, nil, prompts, stubVerifier{approve: true})

	record, err := svc.Confirm(context.Background(), ConfirmCheckInRequest{
		StudentID: "student-1", CourseID: "course-1", Location: "room 101",
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{"student-1:course-1"}, prompts.deleted)
}

func TestConfirmLocationMismatch(t *testing.T) {
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": openCourse("course-1")}}
	svc := newCheckInService(courses, &mockLedger{}, nil, nil, stubVerifier{approve: true})

	_, err := svc.Confirm(context.Background(), ConfirmCheckInRequest{
		StudentID: "student-1", CourseID: "course-1", Location: "Room 202",
	})
	assert.Equal(t, appErrors.ErrLocationMismatch, err)
}

func TestConfirmVerifierDeclines(t *testing.T) {
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": openCourse("course-1")}}
	ledger := &mockLedger{}
	svc := newCheckInService(courses, ledger, nil, nil, stubVerifier{approve: false})

	_, err := svc.Confirm(context.Background(), ConfirmCheckInRequest{
		StudentID: "student-1", CourseID: "course-1", Location: "Room 101",
	})
	assert.Equal(t, appErrors.ErrVerificationDeclined, err)
	assert.Empty(t, ledger.inserted)
}

func TestConfirmVerifierError(t *testing.T) {
	courses := &mockCourseRepo{courses: map[string]models.Course{"course-1": openCourse("course-1")}}
	svc := newCheckInService(courses, &mockLedger{}, nil, nil, stubVerifier{err: errors.New("verifier offline")})

	_, err := svc.Confirm(context.Background(), ConfirmCheckInRequest{
		StudentID: "student-1", CourseID: "course-1", Location: "Room 101",
	})
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestHasCheckedInPrefersMarker(t *testing.T) {
	marker := &mockMarker{checked: map[string]bool{"student-1:course-1": true}}
	ledger := &mockLedger{err: errors.New("should not be queried")}
	svc := newCheckInService(&mockCourseRepo{}, ledger, marker, nil, nil)

	checked, err := svc.HasCheckedIn(context.Background(), "student-1", "course-1", models.DayOf(classTime))
	require.NoError(t, err)
	assert.True(t, checked)
}

func TestHasCheckedInFallsBackToLedger(t *testing.T) {
	marker := &mockMarker{err: errors.New("redis down")}
	ledger := &mockLedger{existing: map[string]bool{"student-1:course-1": true}}
	svc := newCheckInService(&mockCourseRepo{}, ledger, marker, nil, nil)

	checked, err := svc.HasCheckedIn(context.Background(), "student-1", "course-1", models.DayOf(classTime))
	require.NoError(t, err)
	assert.True(t, checked)
}
