package engine

import (
	"context"
	"math"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/metrics"
	"github.com/vsafedot/Earth-Sat/internal/passes"
	"github.com/vsafedot/Earth-Sat/internal/track"
	"github.com/vsafedot/Earth-Sat/internal/transform"
)

// PredictPasses searches [start, start+window] for passes of a named
// satellite over an observer. A non-positive window selects the configured
// default; a NaN minElevDeg selects the default threshold.
func (e *Engine) PredictPasses(ctx context.Context, name string, obsLat, obsLon, obsAltKm float64, start time.Time, window time.Duration, minElevDeg float64) ([]passes.Pass, error) {
	if err := validateObserver(obsLat, obsLon, obsAltKm); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = e.config.PassWindow
	}
	if math.IsNaN(minElevDeg) {
		minElevDeg = e.config.MinElevationDeg
	}

	m, err := e.Model(name)
	if err != nil {
		return nil, err
	}
	obs := transform.NewObserver(obsLat, obsLon, obsAltKm)

	t0 := time.Now()
	result, err := passes.Predict(ctx, m, obs, start, window, minElevDeg, passes.Config{})
	metrics.ObservePassPrediction(time.Since(t0))
	if err != nil {
		return result, err
	}

	e.logger.Debug("pass prediction complete",
		"name", name,
		"passes", len(result),
		"window_hours", window.Hours(),
		"min_elevation", minElevDeg,
	)
	return result, nil
}

// GroundTrack samples the sub-satellite track over [start, start+span].
// A non-positive step selects the configured default.
func (e *Engine) GroundTrack(name string, start time.Time, span, step time.Duration) ([]track.Point, error) {
	if span <= 0 {
		return nil, inputErrf("span", "track span %v must be positive", span)
	}
	if step <= 0 {
		step = e.config.TrackStep
	}

	m, err := e.Model(name)
	if err != nil {
		return nil, err
	}
	return track.Collect(track.Sample(m, start, span, step))
}
