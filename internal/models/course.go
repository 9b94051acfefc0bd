package models

import "time"

// Course represents a course with its check-in window and classroom location.
// Start and end times are nullable: a course without a configured window is
// never eligible for check-in.
type Course struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Location    string     `db:"location" json:"location"`
	ProfessorID string     `db:"professor_id" json:"professor_id"`
	StartTime   *time.Time `db:"start_time" json:"start_time"`
	EndTime     *time.Time `db:"end_time" json:"end_time"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseFilter describes query params for listing courses.
type CourseFilter struct {
	ProfessorID string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
