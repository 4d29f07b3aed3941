// Package cache maintains a periodically refreshed snapshot of the whole
// fleet's sub-satellite points. Readers get the latest snapshot lock-free;
// a background worker refreshes it on a fixed interval.
package cache

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/engine"
	"github.com/vsafedot/Earth-Sat/internal/metrics"
)

// Config holds cache configuration loaded from environment variables.
type Config struct {
	Interval time.Duration // refresh interval (default: 5s)
	MaxAge   time.Duration // snapshots older than this report as misses (default: 30s)
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 30 * time.Second
	}
	return c
}

// FleetCache holds the latest fleet snapshot behind an atomic pointer.
// Safe for concurrent use by multiple goroutines.
type FleetCache struct {
	snapshot atomic.Pointer[engine.FleetSnapshot]

	config Config
	eng    *engine.Engine
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	refreshes atomic.Int64
}

// NewFleetCache creates a fleet snapshot cache.
func NewFleetCache(config Config, eng *engine.Engine, logger *slog.Logger) *FleetCache {
	config = config.withDefaults()
	logger.Info("fleet cache initialized",
		"interval_seconds", config.Interval.Seconds(),
		"max_age_seconds", config.MaxAge.Seconds(),
	)
	return &FleetCache{
		config: config,
		eng:    eng,
		logger: logger,
	}
}

// Latest returns the most recent snapshot, or nil when none exists yet or
// the newest one has aged past MaxAge.
func (c *FleetCache) Latest() *engine.FleetSnapshot {
	snap := c.snapshot.Load()
	if snap == nil || time.Since(snap.Time) > c.config.MaxAge {
		c.misses.Add(1)
		metrics.IncCacheMisses()
		return nil
	}
	c.hits.Add(1)
	metrics.IncCacheHits()
	return snap
}

// Stats holds cache statistics for the stats endpoint.
type Stats struct {
	SnapshotTime time.Time `json:"snapshot_time"`
	Satellites   int       `json:"satellites"`
	Hits         int64     `json:"hits"`
	Misses       int64     `json:"misses"`
	Refreshes    int64     `json:"refreshes"`
}

// Stats returns current cache statistics.
func (c *FleetCache) Stats() Stats {
	s := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Refreshes: c.refreshes.Load(),
	}
	if snap := c.snapshot.Load(); snap != nil {
		s.SnapshotTime = snap.Time
		s.Satellites = len(snap.Satellites)
	}
	return s
}
