package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/attendr/attendr-api/internal/service"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
	"github.com/attendr/attendr-api/pkg/response"
)

// CheckInHandler exposes the attendance check-in endpoints.
type CheckInHandler struct {
	checkins *service.CheckInService
}

// NewCheckInHandler constructs CheckInHandler.
func NewCheckInHandler(checkins *service.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkins: checkins}
}

// CheckIn godoc
// @Summary Record a check-in for an open class window
// @Tags CheckIn
// @Accept json
// @Produce json
// @Param payload body service.CheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /check-in [post]
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Missing studentId or courseId"))
		return
	}
	record, err := h.checkins.CheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Confirm godoc
// @Summary Confirm a prompted check-in with location and identity checks
// @Tags CheckIn
// @Accept json
// @Produce json
// @Param payload body service.ConfirmCheckInRequest true "Confirmation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /check-in/confirm [post]
func (h *CheckInHandler) Confirm(c *gin.Context) {
	var req service.ConfirmCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Missing studentId or courseId"))
		return
	}
	record, err := h.checkins.Confirm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}
