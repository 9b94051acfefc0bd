package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/attendr/attendr-api/internal/models"
	"github.com/attendr/attendr-api/internal/service"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
	"github.com/attendr/attendr-api/pkg/response"
)

// AttendanceHandler exposes the professor-facing attendance views.
type AttendanceHandler struct {
	attendance  *service.AttendanceService
	enrollments *service.EnrollmentService
	exports     *service.ExportService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, enrollments *service.EnrollmentService, exports *service.ExportService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, enrollments: enrollments, exports: exports}
}

// List godoc
// @Summary List attendance records for a course
// @Tags Attendance
// @Produce json
// @Param courseId path string true "Course ID"
// @Param studentId query string false "Filter by student"
// @Param from query string false "Day lower bound (YYYY-MM-DD)"
// @Param to query string false "Day upper bound (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter := models.AttendanceFilter{
		CourseID:  c.Param("courseId"),
		StudentID: c.Query("studentId"),
	}
	if from := c.Query("from"); from != "" {
		if day, err := time.Parse("2006-01-02", from); err == nil {
			filter.DateFrom = &day
		}
	}
	if to := c.Query("to"); to != "" {
		if day, err := time.Parse("2006-01-02", to); err == nil {
			filter.DateTo = &day
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	logs, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Export godoc
// @Summary Download a course's attendance ledger as CSV or PDF
// @Tags Attendance
// @Produce octet-stream
// @Param courseId path string true "Course ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /courses/{courseId}/attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.CourseAttendance(c.Request.Context(), c.Param("courseId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// Enroll godoc
// @Summary Enroll a student on a course
// @Tags Attendance
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body object true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{courseId}/enroll [post]
func (h *AttendanceHandler) Enroll(c *gin.Context) {
	var req struct {
		StudentID string `json:"studentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Missing studentId"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req.StudentID, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Roster godoc
// @Summary List the students enrolled in a course
// @Tags Attendance
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/roster [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	roster, err := h.enrollments.CourseRoster(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}
