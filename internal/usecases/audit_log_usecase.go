package usecases

import (
	"context"

	"go.uber.org/zap"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/domain/repositories"
	"neypot.backend/pkg/logger"
	"neypot.backend/pkg/utils"
)

type AuditLogUsecase struct {
	auditRepo repositories.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repositories.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

// Record writes an audit entry. Failures are logged and swallowed so they
// never fail the action being audited.
func (u *AuditLogUsecase) Record(ctx context.Context, action entities.AuditAction, actor entities.Actor, details string) {
	entry := &entities.AuditLog{
		Action:    action,
		UserID:    actor.UserID,
		UserEmail: actor.Email,
		Details:   optional(details),
		IPAddress: optional(actor.IP),
	}
	if entry.UserEmail == "" {
		entry.UserEmail = entities.SystemActor.Email
	}
	if err := u.auditRepo.Create(ctx, entry); err != nil {
		logger.Warn(ctx, "Failed to record audit log",
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func (u *AuditLogUsecase) List(ctx context.Context, action string, page utils.Page) ([]*entities.AuditLog, utils.PageMeta, error) {
	var filter entities.AuditLogFilter
	if action != "" {
		a := entities.AuditAction(action)
		if !a.IsValid() {
			return nil, utils.PageMeta{}, domainerrors.BadRequest("unknown audit action")
		}
		filter.Action = &a
	}

	items, total, err := u.auditRepo.List(ctx, filter, page)
	if err != nil {
		return nil, utils.PageMeta{}, domainerrors.InternalError(err)
	}
	return items, page.Meta(total), nil
}
