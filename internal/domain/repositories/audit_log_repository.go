package repositories

import (
	"context"

	"neypot.backend/internal/domain/entities"
	"neypot.backend/pkg/utils"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *entities.AuditLog) error
	List(ctx context.Context, filter entities.AuditLogFilter, page utils.Page) ([]*entities.AuditLog, int64, error)
}
