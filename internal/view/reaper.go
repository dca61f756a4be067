package view

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartReaper unmounts views idle longer than ttl every interval until ctx
// is done. It returns immediately; the sweep runs in its own goroutine.
func StartReaper(
	ctx context.Context,
	reg *Registry,
	interval time.Duration,
	ttl time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := reg.Sweep(ttl); removed > 0 {
					log.Info("unmounted idle views",
						zap.Int("removed", removed),
						zap.Int("active", reg.Len()),
					)
				}
			}
		}
	}()
}
