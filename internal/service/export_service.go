package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
	"github.com/attendr/attendr-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat identifies a rendered attendance report format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered attendance report.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a course's attendance ledger as a downloadable file.
type ExportService struct {
	courses    courseReader
	attendance attendanceReader
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(courses courseReader, attendance attendanceReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{courses: courses, attendance: attendance, csv: csv, pdf: pdf, logger: logger}
}

// CourseAttendance renders the full ledger for one course in the requested
// format.
func (s *ExportService) CourseAttendance(ctx context.Context, courseID string, format ExportFormat) (*ExportResult, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id required")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to fetch course")
	}

	dataset, err := s.buildDataset(ctx, course)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Attendance Report: %s", course.Name))
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    buildExportFilename(course.Name, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, course *models.Course) (export.Dataset, error) {
	logs, _, err := s.attendance.List(ctx, models.AttendanceFilter{
		CourseID: course.ID,
		Page:     1,
		PageSize: 10000,
	})
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load attendance")
	}

	rows := make([]map[string]string, 0, len(logs))
	for _, log := range logs {
		present := "no"
		if log.Present {
			present = "yes"
		}
		rows = append(rows, map[string]string{
			"Student ID": log.StudentID,
			"Day":        log.Day.Format("2006-01-02"),
			"Present":    present,
			"Checked At": log.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Headers: []string{"Student ID", "Day", "Present", "Checked At"},
		Rows:    rows,
	}, nil
}

func buildExportFilename(courseName string, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("attendance_%s_%s.%s", sanitizeFilename(courseName), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "course"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
