package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

type enrollmentRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

// EnrollmentService manages the student-to-course membership that both the
// schedule endpoint and the poller read from.
type EnrollmentService struct {
	repo   enrollmentRepository
	logger *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, logger: logger}
}

// Enroll registers a student on a course.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	if studentID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id and course id required")
	}
	enrollment := &models.Enrollment{StudentID: studentID, CourseID: courseID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to enroll student")
	}
	return enrollment, nil
}

// CourseRoster returns the enrollments for a course.
func (s *EnrollmentService) CourseRoster(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id required")
	}
	roster, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load roster")
	}
	if roster == nil {
		roster = []models.Enrollment{}
	}
	return roster, nil
}
