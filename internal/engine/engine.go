// Package engine ties the element catalog, propagator, and transforms into
// the operations the service exposes: positions, visibility, passes, and
// ground tracks, looked up by satellite name.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/metrics"
	"github.com/vsafedot/Earth-Sat/internal/sgp4"
	"github.com/vsafedot/Earth-Sat/internal/tle"
	"github.com/vsafedot/Earth-Sat/internal/transform"
)

// Config holds engine defaults and tuning.
type Config struct {
	MinElevationDeg float64       // visibility threshold default (10)
	Workers         int           // fleet batch parallelism (default: NumCPU via caller)
	PassWindow      time.Duration // default pass search span (24h)
	TrackStep       time.Duration // default ground-track step (30s)
}

// modelCache holds initialized propagation models for one catalog snapshot.
// Immutable after construction; safe for concurrent reads.
type modelCache struct {
	models   map[string]*sgp4.Model
	loadedAt time.Time
}

// Engine is the computation facade. Safe for concurrent use.
type Engine struct {
	store  *tle.Store
	config Config
	logger *slog.Logger
	now    func() time.Time

	cache   atomic.Pointer[modelCache]
	cacheMu sync.Mutex // serializes cache rebuilds
}

// New creates an Engine over the given element store.
func New(store *tle.Store, config Config, logger *slog.Logger) *Engine {
	if config.MinElevationDeg == 0 {
		config.MinElevationDeg = 10.0
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.PassWindow <= 0 {
		config.PassWindow = 24 * time.Hour
	}
	if config.TrackStep <= 0 {
		config.TrackStep = 30 * time.Second
	}
	return &Engine{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Config returns the engine defaults.
func (e *Engine) Config() Config { return e.config }

// LoadCatalog parses three-line element records from r and installs the
// result as the current catalog. Returns the catalog so callers can inspect
// skipped records.
func (e *Engine) LoadCatalog(r io.Reader) (*tle.Catalog, error) {
	cat, err := tle.ParseCatalog(r, e.logger)
	if err != nil {
		return nil, err
	}
	e.store.Set(cat)

	metrics.SetCatalogSize(len(cat.Sets))
	metrics.AddCatalogSkips(len(cat.Skipped))

	e.logger.Info("catalog loaded",
		"satellites", len(cat.Sets),
		"skipped", len(cat.Skipped),
	)
	return cat, nil
}

// Names lists the loaded satellites in catalog order.
func (e *Engine) Names() ([]string, error) {
	cat := e.store.Get()
	if cat == nil {
		return nil, inputErrf("", "no element catalog loaded")
	}
	return cat.Names(), nil
}

// models returns initialized propagation models for the current catalog,
// rebuilding the cache when the catalog snapshot has changed
// (double-checked locking).
func (e *Engine) models(cat *tle.Catalog) map[string]*sgp4.Model {
	if c := e.cache.Load(); c != nil && c.loadedAt.Equal(cat.LoadedAt) {
		return c.models
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if c := e.cache.Load(); c != nil && c.loadedAt.Equal(cat.LoadedAt) {
		return c.models
	}

	models := make(map[string]*sgp4.Model, len(cat.Sets))
	var skipped int
	for name, set := range cat.Sets {
		m, err := sgp4.New(set)
		if err != nil {
			e.logger.Warn("model init failed", "name", name, "error", err)
			skipped++
			continue
		}
		models[name] = m
	}

	e.logger.Info("model cache rebuilt",
		"cached", len(models),
		"skipped", skipped,
		"catalog_loaded_at", cat.LoadedAt.UTC().Format(time.RFC3339),
	)
	e.cache.Store(&modelCache{models: models, loadedAt: cat.LoadedAt})
	return models
}

// Model returns the propagation model for a satellite by name.
func (e *Engine) Model(name string) (*sgp4.Model, error) {
	cat := e.store.Get()
	if cat == nil {
		return nil, inputErrf("", "no element catalog loaded")
	}
	m, ok := e.models(cat)[name]
	if !ok {
		if _, inCatalog := cat.Sets[name]; inCatalog {
			return nil, fmt.Errorf("satellite %q: model unavailable", name)
		}
		return nil, inputErrf("name", "unknown satellite %q", name)
	}
	return m, nil
}

// Position is a satellite's sub-satellite point at one instant.
type Position struct {
	Name string    `json:"name"`
	Time time.Time `json:"time"`
	transform.Geodetic
}

// PositionAt computes the sub-satellite point for a named satellite.
func (e *Engine) PositionAt(name string, t time.Time) (Position, error) {
	m, err := e.Model(name)
	if err != nil {
		return Position{}, err
	}
	sv, err := m.At(t)
	if err != nil {
		return Position{}, err
	}
	return Position{Name: name, Time: t.UTC(), Geodetic: transform.ECIToGeodetic(sv)}, nil
}

// CurrentPosition is PositionAt for the current wall clock.
func (e *Engine) CurrentPosition(name string) (Position, error) {
	return e.PositionAt(name, e.now())
}

// Topocentric is the observer-relative view of a satellite at one instant.
// Visible means elevation at or above the threshold the query used.
type Topocentric struct {
	Name         string    `json:"name"`
	Time         time.Time `json:"time"`
	AzimuthDeg   float64   `json:"azimuth"`
	ElevationDeg float64   `json:"elevation"`
	RangeKm      float64   `json:"range_km"`
	Visible      bool      `json:"visible"`
}

// Visibility computes look angles and the visibility verdict for one observer
// at time t. A NaN minElevDeg selects the configured default threshold.
func (e *Engine) Visibility(name string, obsLat, obsLon, obsAltKm float64, t time.Time, minElevDeg float64) (Topocentric, error) {
	if err := validateObserver(obsLat, obsLon, obsAltKm); err != nil {
		return Topocentric{}, err
	}
	if math.IsNaN(minElevDeg) {
		minElevDeg = e.config.MinElevationDeg
	}

	m, err := e.Model(name)
	if err != nil {
		return Topocentric{}, err
	}
	sv, err := m.At(t)
	if err != nil {
		return Topocentric{}, err
	}

	obs := transform.NewObserver(obsLat, obsLon, obsAltKm)
	la := transform.LookAnglesAt(obs, sv)

	return Topocentric{
		Name:         name,
		Time:         t.UTC(),
		AzimuthDeg:   la.AzimuthDeg,
		ElevationDeg: la.ElevationDeg,
		RangeKm:      la.RangeKm,
		Visible:      la.ElevationDeg >= minElevDeg,
	}, nil
}

// validateObserver rejects out-of-range observer coordinates before any
// propagation work. Altitude is bounded to keep the ECEF conversion sane.
func validateObserver(latDeg, lonDeg, altKm float64) error {
	if math.IsNaN(latDeg) || latDeg < -90 || latDeg > 90 {
		return inputErrf("lat", "latitude %v out of range [-90, 90]", latDeg)
	}
	if math.IsNaN(lonDeg) || lonDeg < -180 || lonDeg > 180 {
		return inputErrf("lon", "longitude %v out of range [-180, 180]", lonDeg)
	}
	if math.IsNaN(altKm) || altKm < -0.5 || altKm > 50 {
		return inputErrf("alt", "altitude %v km out of range [-0.5, 50]", altKm)
	}
	return nil
}
