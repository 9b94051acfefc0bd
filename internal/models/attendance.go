package models

import "time"

// AttendanceLog is a single check-in record. The (student_id, course_id, day)
// triple is unique in the store: a student checks in at most once per course
// per calendar day. Rows are never mutated or deleted.
type AttendanceLog struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Present   bool      `db:"present" json:"present"`
	Day       time.Time `db:"day" json:"day"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	CourseID  string
	StudentID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// CheckInPrompt is a pending confirmation surfaced to a student when the
// poller finds a due course without a recorded check-in.
type CheckInPrompt struct {
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	CourseName string    `json:"course_name"`
	Location   string    `json:"location"`
	IssuedAt   time.Time `json:"issued_at"`
}

// DayOf truncates a timestamp to its UTC calendar day, the granularity the
// attendance ledger is keyed on.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
