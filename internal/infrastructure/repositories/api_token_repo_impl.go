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

type ApiTokenRepository struct {
	db *gorm.DB
}

func NewApiTokenRepository(db *gorm.DB) *ApiTokenRepository {
	return &ApiTokenRepository{db: db}
}

func (r *ApiTokenRepository) Create(ctx context.Context, token *entities.ApiToken) error {
	if token.ID == uuid.Nil {
		token.ID = utils.GenerateUUIDv7()
	}
	m := r.toModel(token)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return err
	}
	token.CreatedAt = m.CreatedAt
	token.UpdatedAt = m.UpdatedAt
	return nil
}

// FindByHash is the ingest lookup path.
func (r *ApiTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*entities.ApiToken, error) {
	var m models.ApiToken
	if err := GetDB(ctx, r.db).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *ApiTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.ApiToken, error) {
	var m models.ApiToken
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *ApiTokenRepository) List(ctx context.Context, filter entities.ApiTokenFilter) ([]*entities.ApiToken, error) {
	query := GetDB(ctx, r.db).Model(&models.ApiToken{})
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}

	var ms []models.ApiToken
	if err := query.Order("created_at DESC").Find(&ms).Error; err != nil {
		return nil, err
	}

	items := make([]*entities.ApiToken, 0, len(ms))
	for i := range ms {
		items = append(items, r.toEntity(&ms[i]))
	}
	return items, nil
}

// UpdateLastUsed is last-write-wins; concurrent ingests may race on it.
func (r *ApiTokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"last_used_at": at})
}

func (r *ApiTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	})
}

func (r *ApiTokenRepository) SetGracePeriod(ctx context.Context, id uuid.UUID, until time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"grace_period_until": until,
		"updated_at":         time.Now(),
	})
}

func (r *ApiTokenRepository) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := GetDB(ctx, r.db).
		Model(&models.ApiToken{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *ApiTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Delete(&models.ApiToken{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *ApiTokenRepository) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&models.ApiToken{}, "tenant_id = ?", tenantID).Error
}

func (r *ApiTokenRepository) RevokeLapsedGrace(ctx context.Context, now time.Time) (int64, error) {
	result := GetDB(ctx, r.db).
		Model(&models.ApiToken{}).
		Where("is_active = ? AND grace_period_until IS NOT NULL AND grace_period_until < ?", true, now).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *ApiTokenRepository) toEntity(m *models.ApiToken) *entities.ApiToken {
	return &entities.ApiToken{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Name:             m.Name,
		TokenHash:        m.TokenHash,
		TokenPreview:     m.TokenPreview,
		IsActive:         m.IsActive,
		ExpiresAt:        m.ExpiresAt,
		GracePeriodUntil: m.GracePeriodUntil,
		LastUsedAt:       m.LastUsedAt,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (r *ApiTokenRepository) toModel(e *entities.ApiToken) *models.ApiToken {
	return &models.ApiToken{
		ID:               e.ID,
		TenantID:         e.TenantID,
		Name:             e.Name,
		TokenHash:        e.TokenHash,
		TokenPreview:     e.TokenPreview,
		IsActive:         e.IsActive,
		ExpiresAt:        e.ExpiresAt,
		GracePeriodUntil: e.GracePeriodUntil,
		LastUsedAt:       e.LastUsedAt,
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}
