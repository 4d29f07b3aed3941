package cache

import (
	"context"
	"errors"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/engine"
	"github.com/vsafedot/Earth-Sat/internal/metrics"
)

// Start runs the background refresh loop: an immediate first snapshot, then
// one per interval. Blocks until ctx is cancelled. Refresh failures are
// logged and counted; the previous snapshot keeps serving until the next
// success or MaxAge expiry.
func (c *FleetCache) Start(ctx context.Context) {
	c.refresh(ctx)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("fleet cache refresher stopped")
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

func (c *FleetCache) refresh(ctx context.Context) {
	start := time.Now()
	snap, err := c.eng.Snapshot(ctx, start)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		var inputErr *engine.InputError
		if errors.As(err, &inputErr) {
			// No catalog yet; quietly wait for one.
			c.logger.Debug("fleet refresh skipped", "reason", err)
			return
		}
		metrics.IncCacheRefreshError()
		c.logger.Warn("fleet refresh failed", "error", err)
		return
	}

	c.snapshot.Store(snap)
	c.refreshes.Add(1)
	metrics.SetCacheSatellites(len(snap.Satellites))

	c.logger.Debug("fleet snapshot refreshed",
		"satellites", len(snap.Satellites),
		"failed", snap.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
