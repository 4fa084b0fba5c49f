package repositories

import (
	"context"

	"github.com/google/uuid"
	"neypot.backend/internal/domain/entities"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *entities.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Tenant, error)
	List(ctx context.Context) ([]*entities.Tenant, error)
	ListActive(ctx context.Context) ([]*entities.Tenant, error)
	Update(ctx context.Context, tenant *entities.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
}
