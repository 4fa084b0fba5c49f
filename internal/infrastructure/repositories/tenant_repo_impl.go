package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/infrastructure/models"
	"neypot.backend/pkg/utils"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *entities.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = utils.GenerateUUIDv7()
	}
	m := r.toModel(tenant)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return err
	}
	tenant.CreatedAt = m.CreatedAt
	tenant.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Tenant, error) {
	var m models.Tenant
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *TenantRepository) List(ctx context.Context) ([]*entities.Tenant, error) {
	return r.list(GetDB(ctx, r.db))
}

func (r *TenantRepository) ListActive(ctx context.Context) ([]*entities.Tenant, error) {
	return r.list(GetDB(ctx, r.db).Where("is_active = ?", true))
}

func (r *TenantRepository) list(query *gorm.DB) ([]*entities.Tenant, error) {
	var ms []models.Tenant
	if err := query.Order("created_at DESC").Find(&ms).Error; err != nil {
		return nil, err
	}

	items := make([]*entities.Tenant, 0, len(ms))
	for i := range ms {
		items = append(items, r.toEntity(&ms[i]))
	}
	return items, nil
}

func (r *TenantRepository) Update(ctx context.Context, tenant *entities.Tenant) error {
	updates := map[string]interface{}{
		"name":           tenant.Name,
		"retention_days": tenant.RetentionDays,
		"is_active":      tenant.IsActive,
		"updated_at":     time.Now(),
	}

	result := GetDB(ctx, r.db).
		Model(&models.Tenant{}).
		Where("id = ?", tenant.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Delete(&models.Tenant{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *TenantRepository) toEntity(m *models.Tenant) *entities.Tenant {
	return &entities.Tenant{
		ID:            m.ID,
		Name:          m.Name,
		RetentionDays: m.RetentionDays,
		IsActive:      m.IsActive,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (r *TenantRepository) toModel(e *entities.Tenant) *models.Tenant {
	return &models.Tenant{
		ID:            e.ID,
		Name:          e.Name,
		RetentionDays: e.RetentionDays,
		IsActive:      e.IsActive,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
