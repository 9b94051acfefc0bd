package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

type mockCourseStore struct {
	courses map[string]models.Course
	created *models.Course
	updated map[string][2]time.Time
}

func (m *mockCourseStore) FindByID(_ context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseStore) List(_ context.Context, _ models.CourseFilter) ([]models.Course, int, error) {
	list := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		list = append(list, c)
	}
	return list, len(list), nil
}

func (m *mockCourseStore) Create(_ context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	m.courses[course.ID] = *course
	m.created = course
	return nil
}

func (m *mockCourseStore) UpdateWindow(_ context.Context, id string, start, end time.Time) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c.StartTime = &start
	c.EndTime = &end
	m.courses[id] = c
	if m.updated == nil {
		m.updated = make(map[string][2]time.Time)
	}
	m.updated[id] = [2]time.Time{start, end}
	return &c, nil
}

func newCourseService(store *mockCourseStore, missingIsNotFound bool) *CourseService {
	return NewCourseService(store, validator.New(), zap.NewNop(), missingIsNotFound)
}

func TestUpdateWindowSetsBothBounds(t *testing.T) {
	store := &mockCourseStore{courses: map[string]models.Course{"course-1": {ID: "course-1", Name: "Algorithms"}}}
	svc := newCourseService(store, false)

	course, err := svc.UpdateWindow(context.Background(), "course-1", UpdateCourseWindowRequest{
		StartTime: "2024-03-04T09:00:00Z",
		EndTime:   "2024-03-04T10:00:00Z",
	})
	require.NoError(t, err)
	require.NotNil(t, course)
	require.NotNil(t, course.StartTime)
	require.NotNil(t, course.EndTime)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), course.StartTime.UTC())
}

func TestUpdateWindowMissingBound(t *testing.T) {
	svc := newCourseService(&mockCourseStore{}, false)

	_, err := svc.UpdateWindow(context.Background(), "course-1", UpdateCourseWindowRequest{
		StartTime: "2024-03-04T09:00:00Z",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Missing start_time or end_time", appErr.Message)
}

func TestUpdateWindowRejectsMalformedTimestamp(t *testing.T) {
	svc := newCourseService(&mockCourseStore{}, false)

	_, err := svc.UpdateWindow(context.Background(), "course-1", UpdateCourseWindowRequest{
		StartTime: "tomorrow",
		EndTime:   "2024-03-04T10:00:00Z",
	})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestUpdateWindowRejectsInvertedBounds(t *testing.T) {
	store := &mockCourseStore{courses: map[string]models.Course{"course-1": {ID: "course-1"}}}
	svc := newCourseService(store, false)

	_, err := svc.UpdateWindow(context.Background(), "course-1", UpdateCourseWindowRequest{
		StartTime: "2024-03-04T10:00:00Z",
		EndTime:   "2024-03-04T09:00:00Z",
	})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestUpdateWindowMissingCourseLegacy(t *testing.T) {
	svc := newCourseService(&mockCourseStore{}, false)

	course, err := svc.UpdateWindow(context.Background(), "missing", UpdateCourseWindowRequest{
		StartTime: "2024-03-04T09:00:00Z",
		EndTime:   "2024-03-04T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Nil(t, course)
}

func TestUpdateWindowMissingCourseStrict(t *testing.T) {
	svc := newCourseService(&mockCourseStore{}, true)

	_, err := svc.UpdateWindow(context.Background(), "missing", UpdateCourseWindowRequest{
		StartTime: "2024-03-04T09:00:00Z",
		EndTime:   "2024-03-04T10:00:00Z",
	})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestCreateCourse(t *testing.T) {
	store := &mockCourseStore{}
	svc := newCourseService(store, false)

	start := "2024-03-04T09:00:00Z"
	end := "2024-03-04T10:00:00Z"
	course, err := svc.Create(context.Background(), CreateCourseRequest{
		Name:        "Algorithms",
		Location:    "Room 101",
		ProfessorID: "prof-1",
		StartTime:   &start,
		EndTime:     &end,
	})
	require.NoError(t, err)
	assert.Equal(t, "Algorithms", course.Name)
	require.NotNil(t, store.created)
	assert.NotNil(t, store.created.StartTime)
}

func TestCreateCourseRequiresFields(t *testing.T) {
	svc := newCourseService(&mockCourseStore{}, false)

	_, err := svc.Create(context.Background(), CreateCourseRequest{Name: "Algorithms"})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestGetCourseNotFound(t *testing.T) {
	svc := newCourseService(&mockCourseStore{}, false)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
