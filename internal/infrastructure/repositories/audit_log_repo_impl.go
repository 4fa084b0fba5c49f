package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/internal/infrastructure/models"
	"neypot.backend/pkg/utils"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *entities.AuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = utils.GenerateUUIDv7()
	}
	m := &models.AuditLog{
		ID:        log.ID,
		Action:    string(log.Action),
		UserID:    log.UserID,
		UserEmail: log.UserEmail,
		Details:   log.Details,
		IPAddress: log.IPAddress,
		CreatedAt: log.CreatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return err
	}
	log.CreatedAt = m.CreatedAt
	return nil
}

func (r *AuditLogRepository) List(ctx context.Context, filter entities.AuditLogFilter, page utils.Page) ([]*entities.AuditLog, int64, error) {
	query := func() *gorm.DB {
		q := GetDB(ctx, r.db).Model(&models.AuditLog{})
		if filter.Action != nil {
			q = q.Where("action = ?", string(*filter.Action))
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.AuditLog
	if err := query().
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*entities.AuditLog, 0, len(ms))
	for i := range ms {
		m := ms[i]
		items = append(items, &entities.AuditLog{
			ID:        m.ID,
			Action:    entities.AuditAction(m.Action),
			UserID:    m.UserID,
			UserEmail: m.UserEmail,
			Details:   m.Details,
			IPAddress: m.IPAddress,
			CreatedAt: m.CreatedAt,
		})
	}
	return items, total, nil
}
