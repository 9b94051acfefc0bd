package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

type attendanceReader interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceLog, int, error)
}

// AttendanceService serves read access to the attendance ledger.
type AttendanceService struct {
	repo   attendanceReader
	logger *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceReader, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, logger: logger}
}

// List returns paginated attendance records matching the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceLog, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	filter.Page = page
	filter.PageSize = size
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list attendance")
	}
	if logs == nil {
		logs = []models.AttendanceLog{}
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return logs, pagination, nil
}
