package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/internal/interfaces/http/response"
	"neypot.backend/internal/usecases"
	"neypot.backend/pkg/utils"
)

type auditLogService interface {
	List(ctx context.Context, action string, page utils.Page) ([]*entities.AuditLog, utils.PageMeta, error)
}

type AuditLogHandler struct {
	service auditLogService
}

func NewAuditLogHandler(service *usecases.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{service: service}
}

// ListAuditLogs
// GET /api/v1/audit-logs?action=&page=&limit=
func (h *AuditLogHandler) ListAuditLogs(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, meta, err := h.service.List(c.Request.Context(), c.Query("action"), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, listResponse{Items: items, Meta: meta})
}
