// Package passes predicts satellite passes over a ground observer.
//
// The predictor is a state machine over the search window: it scans elevation
// at a coarse step while Searching, switches to InPass on an upward crossing
// of the elevation threshold, and refines both crossings by bisection to
// sub-second precision. A pass that is cut off by either window boundary is
// reported with Truncated set, never silently dropped.
package passes

import (
	"context"
	"fmt"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/sgp4"
	"github.com/vsafedot/Earth-Sat/internal/transform"
)

// Pass is one maximal continuous visibility window: rise, peak (maximum
// elevation), and set instants with rise ≤ peak ≤ set. At a refined rise or
// set the elevation equals the threshold within the solver tolerance.
// Truncated marks a pass clipped by the search window boundary; its clipped
// endpoint is the boundary instant rather than a threshold crossing.
type Pass struct {
	Rise time.Time `json:"rise"`
	Peak time.Time `json:"peak"`
	Set  time.Time `json:"set"`

	MaxElevation float64 `json:"max_elevation"`
	RiseAzimuth  float64 `json:"rise_azimuth"`
	PeakAzimuth  float64 `json:"peak_azimuth"`
	SetAzimuth   float64 `json:"set_azimuth"`

	Truncated bool `json:"truncated,omitempty"`
}

// Duration returns set − rise.
func (p Pass) Duration() time.Duration {
	return p.Set.Sub(p.Rise)
}

// Config tunes the search. Zero values select the defaults.
type Config struct {
	CoarseStep time.Duration // scan step while searching (default 30s)
	PeakStep   time.Duration // scan step for peak refinement (default 1s)
	RefineTol  time.Duration // bisection time tolerance (default 250ms)
	MaxPasses  int           // stop after this many passes (default 100)
}

func (c Config) withDefaults() Config {
	if c.CoarseStep <= 0 {
		c.CoarseStep = 30 * time.Second
	}
	if c.PeakStep <= 0 {
		c.PeakStep = time.Second
	}
	if c.RefineTol <= 0 {
		c.RefineTol = 250 * time.Millisecond
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = 100
	}
	return c
}

// predictor state machine states.
type state int

const (
	searching state = iota
	inPass
	done
)

// Predict scans [start, start+window] for passes of one satellite over one
// observer with the given minimum elevation in degrees. The scan honors ctx:
// a cancelled search returns the passes found so far with ctx.Err().
// Propagation failures are surfaced, not masked as "not visible".
func Predict(ctx context.Context, model *sgp4.Model, obs transform.Observer, start time.Time, window time.Duration, minElevDeg float64, cfg Config) ([]Pass, error) {
	cfg = cfg.withDefaults()
	end := start.Add(window)

	var (
		passes  []Pass
		current Pass
		prevT   time.Time
	)

	st := searching
	t := start

	for st != done {
		if err := ctx.Err(); err != nil {
			return passes, err
		}

		la, err := observeAt(model, obs, t)
		if err != nil {
			return passes, fmt.Errorf("pass scan at %s: %w", t.UTC().Format(time.RFC3339), err)
		}
		above := la.ElevationDeg >= minElevDeg

		switch st {
		case searching:
			if above {
				current = Pass{}
				if t.Equal(start) {
					// Already above threshold at the window start: the true
					// rise is outside the window.
					current.Rise = start
					current.RiseAzimuth = la.AzimuthDeg
					current.Truncated = true
				} else {
					rise, riseLA, err := refineCrossing(model, obs, prevT, t, minElevDeg, cfg.RefineTol)
					if err != nil {
						return passes, err
					}
					current.Rise = rise
					current.RiseAzimuth = riseLA.AzimuthDeg
				}
				current.Peak = t
				current.PeakAzimuth = la.AzimuthDeg
				current.MaxElevation = la.ElevationDeg
				st = inPass
			}

		case inPass:
			if above {
				if la.ElevationDeg > current.MaxElevation {
					current.MaxElevation = la.ElevationDeg
					current.Peak = t
					current.PeakAzimuth = la.AzimuthDeg
				}
			} else {
				set, setLA, err := refineCrossing(model, obs, prevT, t, minElevDeg, cfg.RefineTol)
				if err != nil {
					return passes, err
				}
				current.Set = set
				current.SetAzimuth = setLA.AzimuthDeg
				if err := finishPass(model, obs, &current, cfg); err != nil {
					return passes, err
				}
				passes = append(passes, current)
				if len(passes) >= cfg.MaxPasses {
					return passes, nil
				}
				st = searching
			}
		}

		prevT = t

		if !t.Before(end) {
			break
		}
		t = t.Add(cfg.CoarseStep)
		if t.After(end) {
			t = end
		}
	}

	// Window exhausted mid-pass: report the pass clipped at the boundary.
	if st == inPass {
		la, err := observeAt(model, obs, end)
		if err != nil {
			return passes, fmt.Errorf("pass scan at window end: %w", err)
		}
		current.Set = end
		current.SetAzimuth = la.AzimuthDeg
		current.Truncated = true
		if la.ElevationDeg > current.MaxElevation {
			current.MaxElevation = la.ElevationDeg
			current.Peak = end
			current.PeakAzimuth = la.AzimuthDeg
		}
		if err := finishPass(model, obs, &current, cfg); err != nil {
			return passes, err
		}
		passes = append(passes, current)
	}

	return passes, nil
}

// finishPass refines the peak by re-sampling the interval around the best
// coarse sample at PeakStep. One continuous above-threshold interval reports
// only its global maximum, even when the geometry produces several local ones.
func finishPass(model *sgp4.Model, obs transform.Observer, p *Pass, cfg Config) error {
	lo := p.Peak.Add(-cfg.CoarseStep)
	if lo.Before(p.Rise) {
		lo = p.Rise
	}
	hi := p.Peak.Add(cfg.CoarseStep)
	if hi.After(p.Set) {
		hi = p.Set
	}

	for t := lo; !t.After(hi); t = t.Add(cfg.PeakStep) {
		la, err := observeAt(model, obs, t)
		if err != nil {
			return fmt.Errorf("peak refinement at %s: %w", t.UTC().Format(time.RFC3339), err)
		}
		if la.ElevationDeg > p.MaxElevation {
			p.MaxElevation = la.ElevationDeg
			p.Peak = t
			p.PeakAzimuth = la.AzimuthDeg
		}
	}
	return nil
}

// refineCrossing bisects [lo, hi], where elevation−threshold changes sign,
// down to the given time tolerance. Returns the crossing instant and the
// look angles there.
func refineCrossing(model *sgp4.Model, obs transform.Observer, lo, hi time.Time, minElevDeg float64, tol time.Duration) (time.Time, transform.LookAngles, error) {
	loLA, err := observeAt(model, obs, lo)
	if err != nil {
		return time.Time{}, transform.LookAngles{}, err
	}
	loAbove := loLA.ElevationDeg >= minElevDeg

	for hi.Sub(lo) > tol {
		mid := lo.Add(hi.Sub(lo) / 2)
		midLA, err := observeAt(model, obs, mid)
		if err != nil {
			return time.Time{}, transform.LookAngles{}, err
		}
		if (midLA.ElevationDeg >= minElevDeg) == loAbove {
			lo = mid
		} else {
			hi = mid
		}
	}

	mid := lo.Add(hi.Sub(lo) / 2)
	la, err := observeAt(model, obs, mid)
	if err != nil {
		return time.Time{}, transform.LookAngles{}, err
	}
	return mid, la, nil
}

// observeAt propagates and computes look angles for one instant.
func observeAt(model *sgp4.Model, obs transform.Observer, t time.Time) (transform.LookAngles, error) {
	sv, err := model.At(t)
	if err != nil {
		return transform.LookAngles{}, err
	}
	return transform.LookAnglesAt(obs, sv), nil
}
