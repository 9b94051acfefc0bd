package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Create(ctx context.Context, course *models.Course) error
	UpdateWindow(ctx context.Context, id string, start, end time.Time) (*models.Course, error)
}

// CourseService backs the professor-facing course settings surface.
type CourseService struct {
	repo              courseRepository
	validator         *validator.Validate
	logger            *zap.Logger
	missingIsNotFound bool
}

// NewCourseService constructs the course service. missingIsNotFound selects
// whether updating a nonexistent course reports 404 or keeps the legacy
// 200-with-null behaviour.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger, missingIsNotFound bool) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger, missingIsNotFound: missingIsNotFound}
}

// CreateCourseRequest describes the course creation payload.
type CreateCourseRequest struct {
	Name        string  `json:"name" validate:"required"`
	Location    string  `json:"location" validate:"required"`
	ProfessorID string  `json:"professor_id" validate:"required"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
}

// UpdateCourseWindowRequest is the PUT /courses/{id} payload.
type UpdateCourseWindowRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Create persists a new course. The check-in window is optional at creation
// time; when both bounds are present they must be ordered.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	course := &models.Course{
		Name:        req.Name,
		Location:    req.Location,
		ProfessorID: req.ProfessorID,
	}
	if req.StartTime != nil {
		start, err := parseTimestamp(*req.StartTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_time, expected ISO-8601")
		}
		course.StartTime = &start
	}
	if req.EndTime != nil {
		end, err := parseTimestamp(*req.EndTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_time, expected ISO-8601")
		}
		course.EndTime = &end
	}
	if course.StartTime != nil && course.EndTime != nil && course.EndTime.Before(*course.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must not be after end_time")
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create course")
	}
	return course, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id required")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to fetch course")
	}
	return course, nil
}

// List returns paginated courses.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	filter.Page = page
	filter.PageSize = size
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list courses")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

// UpdateWindow rewrites a course's check-in window. A nil course with a nil
// error reproduces the legacy behaviour for a nonexistent id: the update
// touched zero rows but the call reports success.
func (s *CourseService) UpdateWindow(ctx context.Context, id string, req UpdateCourseWindowRequest) (*models.Course, error) {
	if req.StartTime == "" || req.EndTime == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Missing start_time or end_time")
	}
	start, err := parseTimestamp(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_time, expected ISO-8601")
	}
	end, err := parseTimestamp(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_time, expected ISO-8601")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must not be after end_time")
	}
	course, err := s.repo.UpdateWindow(ctx, id, start, end)
	if err != nil {
		if err == sql.ErrNoRows {
			if s.missingIsNotFound {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			s.logger.Warn("window update matched no course", zap.String("course_id", id))
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update course")
	}
	return course, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}
