package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/pkg/logger"
)

const DefaultRetentionInterval = time.Hour

type retentionTenantSource interface {
	ListActive(ctx context.Context) ([]*entities.Tenant, error)
}

type retentionEventStore interface {
	DeleteOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error)
}

// EventRetentionJob deletes events older than each active tenant's
// retention window.
type EventRetentionJob struct {
	tenants  retentionTenantSource
	events   retentionEventStore
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewEventRetentionJob(tenants retentionTenantSource, events retentionEventStore, interval time.Duration) *EventRetentionJob {
	if interval <= 0 {
		interval = DefaultRetentionInterval
	}
	return &EventRetentionJob{
		tenants:  tenants,
		events:   events,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (j *EventRetentionJob) Start(ctx context.Context) {
	runEvery(ctx, "event_retention", j.interval, j.stop, j.purge)
}

func (j *EventRetentionJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *EventRetentionJob) purge(ctx context.Context) {
	tenants, err := j.tenants.ListActive(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to list tenants for retention", zap.Error(err))
		return
	}

	now := j.now().UTC()
	var total int64
	for _, tenant := range tenants {
		if tenant.RetentionDays <= 0 {
			continue
		}
		cutoff := now.AddDate(0, 0, -tenant.RetentionDays)
		deleted, err := j.events.DeleteOlderThan(ctx, tenant.ID, cutoff)
		if err != nil {
			logger.Error(ctx, "Failed to purge events",
				zap.String("tenant_id", tenant.ID.String()),
				zap.Error(err),
			)
			continue
		}
		total += deleted
	}

	if total > 0 {
		logger.Info(ctx, "Purged expired events", zap.Int64("deleted", total))
	}
}
