package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/pkg/utils"
)

type EventRepository interface {
	Insert(ctx context.Context, event *entities.HoneypotEvent) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entities.HoneypotEvent, error)
	List(ctx context.Context, filter entities.EventFilter, page utils.Page) ([]*entities.HoneypotEvent, int64, error)
	SetTags(ctx context.Context, id uuid.UUID, tags []entities.EventTag) error
	SetNotes(ctx context.Context, id uuid.UUID, notes string) error
	Stats(ctx context.Context, tenantID *uuid.UUID) (*entities.EventStats, error)
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
	DeleteOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error)
}
