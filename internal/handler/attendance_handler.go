package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/dto"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/service"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/response"
)

type attendanceService interface {
	RecordAttendance(ctx context.Context, req service.RecordAttendanceRequest, actorID string) (*models.AttendanceRecord, error)
	UpdateAttendance(ctx context.Context, id string, req service.UpdateAttendanceRequest, actorID string) (*models.AttendanceRecord, error)
	RecordAttendanceBulk(ctx context.Context, sessionID string, req service.BulkAttendanceRequest, actorID string) (*dto.BulkAttendanceResult, error)
	SessionRoster(ctx context.Context, sessionID string) (*dto.SessionRoster, error)
}

type rosterExporter interface {
	ExportRoster(ctx context.Context, sessionID, format string) (*service.ExportFile, error)
}

// AttendanceHandler exposes attendance registration and roster endpoints.
type AttendanceHandler struct {
	service  attendanceService
	exporter rosterExporter
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc attendanceService, exporter rosterExporter) *AttendanceHandler {
	return &AttendanceHandler{service: svc, exporter: exporter}
}

// Record godoc
// @Summary Record attendance for an enrollment
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.RecordAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.RecordAttendance(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update an attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance record ID"
// @Param payload body service.UpdateAttendanceRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [put]
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req service.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.UpdateAttendance(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Bulk godoc
// @Summary Record attendance for many enrollments of a session
// @Description Items are processed independently; failures are listed in errors.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.BulkAttendanceRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/attendance/bulk [post]
func (h *AttendanceHandler) Bulk(c *gin.Context) {
	var req service.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.RecordAttendanceBulk(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{
		"error_count": len(result.Errors),
	})
}

// Roster godoc
// @Summary Session roster with pending and recorded attendance
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/roster [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	roster, err := h.service.SessionRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Export godoc
// @Summary Download the session roster
// @Tags Attendance
// @Produce octet-stream
// @Param id path string true "Session ID"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} file
// @Router /sessions/{id}/roster/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	file, err := h.exporter.ExportRoster(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}
