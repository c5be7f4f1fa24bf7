package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/dto"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/service"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/response"
)

type statisticsService interface {
	SessionStats(ctx context.Context, sessionID string) (*dto.SessionStats, error)
	ClientStats(ctx context.Context, clientID string, req service.ClientStatsRequest) (*dto.ClientStats, error)
}

// StatisticsHandler serves attendance statistics.
type StatisticsHandler struct {
	service statisticsService
}

// NewStatisticsHandler constructs a statistics handler.
func NewStatisticsHandler(svc statisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: svc}
}

// Session godoc
// @Summary Attendance statistics of a session
// @Tags Statistics
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/stats [get]
func (h *StatisticsHandler) Session(c *gin.Context) {
	stats, err := h.service.SessionStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Client godoc
// @Summary Attendance statistics of a client
// @Tags Statistics
// @Produce json
// @Param id path string true "Client ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /clients/{id}/stats [get]
func (h *StatisticsHandler) Client(c *gin.Context) {
	var req service.ClientStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	stats, err := h.service.ClientStats(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
