package filestore

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunSweeper sweeps the store once immediately and then on every tick until
// ctx is cancelled.
func RunSweeper(ctx context.Context, store *TempStore, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	store.logger.Info("Temp file sweeper started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if n := store.Sweep(); n > 0 {
			store.logger.Info("Swept stale uploads", zap.Int("removed", n))
		}
		select {
		case <-ctx.Done():
			store.logger.Info("Temp file sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
