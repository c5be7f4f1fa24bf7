package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/response"
)

type auditHistory interface {
	History(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail of an entity.
type AuditHandler struct {
	service auditHistory
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(svc auditHistory) *AuditHandler {
	return &AuditHandler{service: svc}
}

// History godoc
// @Summary Audit trail of an entity
// @Tags Audit
// @Produce json
// @Param entity path string true "Entity type (session, enrollment, attendance, room)"
// @Param id path string true "Entity ID"
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} response.Envelope
// @Router /audit/{entity}/{id} [get]
func (h *AuditHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.service.History(c.Request.Context(), c.Param("entity"), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
