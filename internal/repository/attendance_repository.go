package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/attendr/attendr-api/internal/models"
)

// AttendanceRepository is the single writer of attendance_logs. The table
// carries UNIQUE (student_id, course_id, day) so the at-most-once-per-day
// invariant holds even when two attempts race.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ExistsForDay reports whether a check-in is already recorded for the
// student/course pair on the given day.
func (r *AttendanceRepository) ExistsForDay(ctx context.Context, studentID, courseID string, day time.Time) (bool, error) {
	const query = `SELECT 1 FROM attendance_logs WHERE student_id = $1 AND course_id = $2 AND day = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, models.DayOf(day)); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return true, nil
}

// InsertOnce conditionally inserts a check-in record. The insert and the
// duplicate check are a single atomic statement; when a record already exists
// for the day, inserted is false and no row is written.
func (r *AttendanceRepository) InsertOnce(ctx context.Context, record *models.AttendanceLog) (*models.AttendanceLog, bool, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.Day.IsZero() {
		record.Day = models.DayOf(record.CreatedAt)
	}
	const query = `INSERT INTO attendance_logs (id, student_id, course_id, present, day, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (student_id, course_id, day) DO NOTHING
RETURNING id, student_id, course_id, present, day, created_at`
	var stored models.AttendanceLog
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.CourseID, record.Present, record.Day, record.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("insert attendance: %w", err)
	}
	return &stored, true, nil
}

// List returns attendance rows matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceLog, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.CourseID != "" {
		where = append(where, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("day >= $%d", len(args)+1))
		args = append(args, models.DayOf(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("day <= $%d", len(args)+1))
		args = append(args, models.DayOf(*filter.DateTo))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, course_id, present, day, created_at
FROM attendance_logs WHERE %s
ORDER BY created_at DESC
LIMIT %d OFFSET %d`, whereClause, size, offset)

	var rows []models.AttendanceLog
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_logs WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}
