package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

type promptStore interface {
	Put(ctx context.Context, prompt models.CheckInPrompt, ttl time.Duration) error
	ListByStudent(ctx context.Context, studentID string) ([]models.CheckInPrompt, error)
	Delete(ctx context.Context, studentID, courseID string) error
}

// PromptService surfaces pending check-in confirmations to students. It is
// the server-side stand-in for the extension's confirmation popup: the
// poller files a prompt, the student's client polls for it, and resolving or
// dismissing it removes it.
type PromptService struct {
	store   promptStore
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewPromptService constructs the prompt service.
func NewPromptService(store promptStore, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *PromptService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromptService{store: store, ttl: ttl, metrics: metrics, logger: logger, now: time.Now}
}

// Prompt files a pending confirmation for the student and course. Prompting
// is best effort: with no prompt store configured the call is a no-op.
func (s *PromptService) Prompt(ctx context.Context, studentID string, course models.Course) error {
	prompt := models.CheckInPrompt{
		StudentID:  studentID,
		CourseID:   course.ID,
		CourseName: course.Name,
		Location:   course.Location,
		IssuedAt:   s.now().UTC(),
	}
	if err := s.store.Put(ctx, prompt, s.ttl); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Debug("prompt store disabled, dropping prompt",
				zap.String("student_id", studentID), zap.String("course_id", course.ID))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to store prompt")
	}
	s.metrics.RecordPromptIssued()
	s.logger.Info("check-in prompt issued",
		zap.String("student_id", studentID), zap.String("course_id", course.ID), zap.String("location", course.Location))
	return nil
}

// Pending lists the prompts awaiting the student's confirmation.
func (s *PromptService) Pending(ctx context.Context, studentID string) ([]models.CheckInPrompt, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id required")
	}
	prompts, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list prompts")
	}
	if prompts == nil {
		prompts = []models.CheckInPrompt{}
	}
	return prompts, nil
}

// Dismiss discards a pending prompt. Nothing else changes: a dismissed
// attempt leaves no attendance state behind.
func (s *PromptService) Dismiss(ctx context.Context, studentID, courseID string) error {
	if studentID == "" || courseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id and course id required")
	}
	if err := s.store.Delete(ctx, studentID, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to dismiss prompt")
	}
	return nil
}
