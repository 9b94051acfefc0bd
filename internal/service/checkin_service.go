package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/eligibility"
	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type attendanceLedger interface {
	ExistsForDay(ctx context.Context, studentID, courseID string, day time.Time) (bool, error)
	InsertOnce(ctx context.Context, record *models.AttendanceLog) (*models.AttendanceLog, bool, error)
}

type checkInMarker interface {
	MarkCheckedIn(ctx context.Context, studentID, courseID string, day time.Time) error
	HasCheckedIn(ctx context.Context, studentID, courseID string, day time.Time) (bool, error)
}

type promptRemover interface {
	Delete(ctx context.Context, studentID, courseID string) error
}

// CheckInService owns the check-in commit path: it evaluates eligibility and
// writes attendance records through the ledger gateway.
type CheckInService struct {
	courses   courseReader
	ledger    attendanceLedger
	marker    checkInMarker
	prompts   promptRemover
	evaluator *eligibility.Evaluator
	verifier  Verifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckInService constructs the service. marker, prompts and metrics are
// optional.
func NewCheckInService(
	courses courseReader,
	ledger attendanceLedger,
	marker checkInMarker,
	prompts promptRemover,
	evaluator *eligibility.Evaluator,
	verifier Verifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *CheckInService {
	if evaluator == nil {
		evaluator = eligibility.NewEvaluator(eligibility.WindowModeAbsolute)
	}
	if verifier == nil {
		verifier = StaticVerifier{Approve: true}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckInService{
		courses:   courses,
		ledger:    ledger,
		marker:    marker,
		prompts:   prompts,
		evaluator: evaluator,
		verifier:  verifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckInRequest is the POST /check-in payload.
type CheckInRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// ConfirmCheckInRequest is the confirmation-flow payload carrying the
// student's claimed location.
type ConfirmCheckInRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	Location  string `json:"location"`
}

// CheckIn validates the time window for the course and records attendance.
// Location is not part of this gate; it belongs to the confirmation flow.
func (s *CheckInService) CheckIn(ctx context.Context, req CheckInRequest) (*models.AttendanceLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Missing studentId or courseId")
	}
	course, err := s.fetchCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !s.evaluator.WindowContains(*course, now) {
		return nil, appErrors.ErrOutOfWindow
	}
	return s.commit(ctx, req.StudentID, course.ID, now)
}

// Confirm runs the full confirmation flow: eligibility is re-validated at
// commit time (the prompt may have been open for a while), then the identity
// verifier gates the write.
func (s *CheckInService) Confirm(ctx context.Context, req ConfirmCheckInRequest) (*models.AttendanceLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Missing studentId or courseId")
	}
	course, err := s.fetchCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	verdict := s.evaluator.Evaluate(*course, eligibility.Attempt{
		StudentID:       req.StudentID,
		CourseID:        course.ID,
		ClaimedLocation: req.Location,
		At:              now,
	})
	if !verdict.Eligible {
		if verdict.Reason == eligibility.ReasonLocationMismatch {
			return nil, appErrors.ErrLocationMismatch
		}
		return nil, appErrors.ErrOutOfWindow
	}

	verified, err := s.verifier.Verify(ctx, req.StudentID)
	if err != nil {
		s.logger.Error("identity verification failed",
			zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "identity verification failed")
	}
	if !verified {
		return nil, appErrors.ErrVerificationDeclined
	}

	record, err := s.commit(ctx, req.StudentID, course.ID, now)
	if err != nil {
		return nil, err
	}
	if s.prompts != nil {
		if err := s.prompts.Delete(ctx, req.StudentID, course.ID); err != nil {
			s.logger.Warn("failed to clear prompt",
				zap.String("student_id", req.StudentID), zap.String("course_id", course.ID), zap.Error(err))
		}
	}
	return record, nil
}

// HasCheckedIn reports whether a check-in exists for the pair on the given
// day, consulting the cache marker before the store.
func (s *CheckInService) HasCheckedIn(ctx context.Context, studentID, courseID string, day time.Time) (bool, error) {
	if s.marker != nil {
		hit, err := s.marker.HasCheckedIn(ctx, studentID, courseID, day)
		if err != nil {
			s.logger.Warn("check-in cache lookup failed", zap.Error(err))
		} else if hit {
			return true, nil
		}
	}
	checked, err := s.ledger.ExistsForDay(ctx, studentID, courseID, day)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to query attendance")
	}
	return checked, nil
}

func (s *CheckInService) fetchCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrCourseNotFound
		}
		s.logger.Error("course lookup failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCourseNotFound.Code, appErrors.ErrCourseNotFound.Status, appErrors.ErrCourseNotFound.Message)
	}
	return course, nil
}

func (s *CheckInService) commit(ctx context.Context, studentID, courseID string, at time.Time) (*models.AttendanceLog, error) {
	record := &models.AttendanceLog{
		StudentID: studentID,
		CourseID:  courseID,
		Present:   true,
		Day:       models.DayOf(at),
		CreatedAt: at.UTC(),
	}
	stored, inserted, err := s.ledger.InsertOnce(ctx, record)
	if err != nil {
		s.logger.Error("failed to record check-in",
			zap.String("student_id", studentID), zap.String("course_id", courseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record check-in")
	}
	if !inserted {
		return nil, appErrors.ErrAlreadyCheckedIn
	}
	if s.marker != nil {
		if err := s.marker.MarkCheckedIn(ctx, studentID, courseID, at); err != nil {
			s.logger.Warn("failed to mark check-in cache", zap.Error(err))
		}
	}
	s.metrics.RecordCheckIn()
	s.logger.Info("check-in recorded",
		zap.String("student_id", studentID), zap.String("course_id", courseID), zap.Time("day", record.Day))
	return stored, nil
}
