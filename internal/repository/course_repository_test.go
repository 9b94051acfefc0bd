package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendr/attendr-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "location", "professor_id", "start_time", "end_time", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "Algorithms", "Room 101", "prof-1", nil, nil, time.Now(), time.Now())
	}
	return rows
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, location, professor_id, start_time, end_time, created_at, updated_at FROM courses WHERE id = $1")).
		WithArgs("course-1").
		WillReturnRows(courseRows("course-1"))

	course, err := repo.FindByID(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "course-1", course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT .* FROM courses WHERE id").
		WithArgs("missing").
		WillReturnRows(courseRows())

	_, err := repo.FindByID(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT .* FROM courses WHERE id IN").
		WithArgs("course-1", "course-2").
		WillReturnRows(courseRows("course-1", "course-2"))

	courses, err := repo.ListByIDs(context.Background(), []string{"course-1", "course-2"})
	require.NoError(t, err)
	assert.Len(t, courses, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListByIDsEmpty(t *testing.T) {
	db, _, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	courses, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, courses)
}

func TestCourseRepositoryUpdateWindow(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "location", "professor_id", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("course-1", "Algorithms", "Room 101", "prof-1", start, end, time.Now(), time.Now())
	mock.ExpectQuery("UPDATE courses SET start_time").
		WithArgs("course-1", start, end, sqlmock.AnyArg()).
		WillReturnRows(rows)

	course, err := repo.UpdateWindow(context.Background(), "course-1", start, end)
	require.NoError(t, err)
	require.NotNil(t, course.StartTime)
	assert.Equal(t, start, course.StartTime.UTC())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateWindowMissing(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("UPDATE courses SET start_time").
		WithArgs("missing", start, end, sqlmock.AnyArg()).
		WillReturnRows(courseRows())

	_, err := repo.UpdateWindow(context.Background(), "missing", start, end)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Name: "Algorithms", Location: "Room 101", ProfessorID: "prof-1"}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.NotEmpty(t, course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
