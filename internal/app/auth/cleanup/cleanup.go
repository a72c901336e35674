// Package cleanup removes refresh tokens whose expiry has passed from stores
// that do not expire records on their own.
package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Run sweeps once immediately and then every interval until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func Run(ctx context.Context, repo ExpiredTokenDeleter, interval time.Duration, logger *zap.Logger) error {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sweep(ctx, repo, logger)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, repo ExpiredTokenDeleter, logger *zap.Logger) {
	n, err := repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("delete expired refresh tokens", zap.Error(err))
		}
		return
	}
	if n > 0 {
		logger.Info("deleted expired refresh tokens", zap.Int64("count", n))
	}
}
