package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

type enrollmentReader interface {
	ListCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

type courseCatalog interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

// ScheduleService expands a student's enrollments into their course
// schedule. It is the poller's schedule source and also serves the student
// schedule endpoint.
type ScheduleService struct {
	enrollments enrollmentReader
	courses     courseCatalog
	logger      *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(enrollments enrollmentReader, courses courseCatalog, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{enrollments: enrollments, courses: courses, logger: logger}
}

// StudentSchedule returns the courses a student is enrolled in.
func (s *ScheduleService) StudentSchedule(ctx context.Context, studentID string) ([]models.Course, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id required")
	}
	courseIDs, err := s.enrollments.ListCourseIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load enrollments")
	}
	if len(courseIDs) == 0 {
		return []models.Course{}, nil
	}
	courses, err := s.courses.ListByIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load schedule")
	}
	return courses, nil
}
