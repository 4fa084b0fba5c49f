package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/pkg/logger"
)

const DefaultRotationFinalizerInterval = 5 * time.Minute

type lapsedGraceRevoker interface {
	RevokeLapsedGrace(ctx context.Context, now time.Time) (int64, error)
}

type auditRecorder interface {
	Record(ctx context.Context, action entities.AuditAction, actor entities.Actor, details string)
}

// RotationFinalizerJob deactivates rotated tokens once their grace window
// has passed.
type RotationFinalizerJob struct {
	tokens   lapsedGraceRevoker
	audit    auditRecorder
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRotationFinalizerJob(tokens lapsedGraceRevoker, audit auditRecorder, interval time.Duration) *RotationFinalizerJob {
	if interval <= 0 {
		interval = DefaultRotationFinalizerInterval
	}
	return &RotationFinalizerJob{
		tokens:   tokens,
		audit:    audit,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (j *RotationFinalizerJob) Start(ctx context.Context) {
	runEvery(ctx, "rotation_finalizer", j.interval, j.stop, j.finalize)
}

func (j *RotationFinalizerJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *RotationFinalizerJob) finalize(ctx context.Context) {
	revoked, err := j.tokens.RevokeLapsedGrace(ctx, j.now().UTC())
	if err != nil {
		logger.Error(ctx, "Failed to finalize rotated tokens", zap.Error(err))
		return
	}
	if revoked == 0 {
		return
	}

	logger.Info(ctx, "Finalized rotated tokens", zap.Int64("revoked", revoked))
	if j.audit != nil {
		j.audit.Record(ctx, entities.AuditTokenRevoked, entities.SystemActor,
			fmt.Sprintf("rotation finalizer revoked %d token(s) after grace period", revoked))
	}
}
