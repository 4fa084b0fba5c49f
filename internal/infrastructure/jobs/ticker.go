package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"neypot.backend/pkg/logger"
)

// runEvery calls tick on every interval until ctx is cancelled or stop closes.
func runEvery(ctx context.Context, name string, interval time.Duration, stop <-chan struct{}, tick func(context.Context)) {
	logger.Info(ctx, "Starting job", zap.String("job", name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Job stopped (context cancelled)", zap.String("job", name))
			return
		case <-stop:
			logger.Info(ctx, "Job stopped", zap.String("job", name))
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}
