package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/attendr/attendr-api/internal/service"
	"github.com/attendr/attendr-api/pkg/response"
)

// StudentHandler exposes the student-facing schedule and prompt endpoints.
type StudentHandler struct {
	schedules *service.ScheduleService
	prompts   *service.PromptService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(schedules *service.ScheduleService, prompts *service.PromptService) *StudentHandler {
	return &StudentHandler{schedules: schedules, prompts: prompts}
}

// Schedule godoc
// @Summary List the courses a student is enrolled in
// @Tags Students
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/schedule [get]
func (h *StudentHandler) Schedule(c *gin.Context) {
	courses, err := h.schedules.StudentSchedule(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Prompts godoc
// @Summary List pending check-in prompts for a student
// @Tags Students
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/prompts [get]
func (h *StudentHandler) Prompts(c *gin.Context) {
	prompts, err := h.prompts.Pending(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prompts, nil)
}

// DismissPrompt godoc
// @Summary Dismiss a pending check-in prompt
// @Tags Students
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 204
// @Router /students/{studentId}/prompts/{courseId} [delete]
func (h *StudentHandler) DismissPrompt(c *gin.Context) {
	if err := h.prompts.Dismiss(c.Request.Context(), c.Param("studentId"), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
