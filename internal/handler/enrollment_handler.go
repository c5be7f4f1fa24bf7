package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/service"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/response"
)

type enrollmentService interface {
	ListEnrollments(ctx context.Context, req service.ListEnrollmentsRequest) ([]models.Enrollment, *models.Pagination, error)
	GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error)
	Enroll(ctx context.Context, req service.EnrollRequest, actorID string) (*models.Enrollment, error)
	CancelEnrollment(ctx context.Context, id string, actorID string) (*models.Enrollment, error)
}

// EnrollmentHandler handles seat reservation endpoints.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param session_id query string false "Session ID"
// @Param client_id query string false "Client ID"
// @Param status query string false "Enrollment status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var req service.ListEnrollmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	enrollments, pagination, err := h.service.ListEnrollments(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get godoc
// @Summary Get enrollment by id
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.service.GetEnrollment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Enroll godoc
// @Summary Reserve a seat in a session
// @Description Fails with SESSION_NOT_OPEN, SESSION_FULL, NO_ACTIVE_MEMBERSHIP or ALREADY_ENROLLED.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Cancel godoc
// @Summary Cancel an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/cancel [post]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	enrollment, err := h.service.CancelEnrollment(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
