package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/filmbot/core/logger"
	"github.com/m3rciful/filmbot/core/metrics"
)

const defaultSweepInterval = time.Minute

// RunJanitor sweeps idle sessions every interval until ctx is done.
// A non-positive ttl keeps sessions forever and returns immediately.
func RunJanitor(ctx context.Context, mgr Manager, ttl, interval time.Duration) {
	if mgr == nil || ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mgr.Sweep(ttl); n > 0 {
				metrics.SessionsExpired.Add(float64(n))
				logger.Info(ctx, "tg.state", "session.expired",
					slog.String("status", "ok"),
					slog.Int("count", n),
					slog.Duration("ttl", ttl),
				)
			}
		}
	}
}
