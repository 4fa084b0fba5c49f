package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"neypot.backend/internal/domain/entities"
)

type ApiTokenRepository interface {
	Create(ctx context.Context, token *entities.ApiToken) error
	FindByHash(ctx context.Context, tokenHash string) (*entities.ApiToken, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entities.ApiToken, error)
	List(ctx context.Context, filter entities.ApiTokenFilter) ([]*entities.ApiToken, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	Revoke(ctx context.Context, id uuid.UUID) error
	SetGracePeriod(ctx context.Context, id uuid.UUID, until time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
	// RevokeLapsedGrace deactivates active tokens whose grace window ended before now.
	RevokeLapsedGrace(ctx context.Context, now time.Time) (int64, error)
}
