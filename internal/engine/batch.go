package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/metrics"
	"github.com/vsafedot/Earth-Sat/internal/sgp4"
	"github.com/vsafedot/Earth-Sat/internal/transform"
)

// FleetSnapshot holds the sub-satellite points of the whole catalog at one
// instant. Satellites whose propagation failed at that instant are absent.
type FleetSnapshot struct {
	Time       time.Time  `json:"time"`
	Satellites []Position `json:"satellites"`
	Failed     int        `json:"failed,omitempty"`
}

type fleetJob struct {
	name  string
	model *sgp4.Model
}

type fleetResult struct {
	pos Position
	err error
}

// Snapshot propagates every satellite in the catalog to time t using the
// configured worker count. GMST is computed once; the rotation angle is the
// same for every satellite at a shared instant. Individual failures are
// logged and counted, never fatal to the batch.
func (e *Engine) Snapshot(ctx context.Context, t time.Time) (*FleetSnapshot, error) {
	cat := e.store.Get()
	if cat == nil {
		return nil, inputErrf("", "no element catalog loaded")
	}
	models := e.models(cat)

	gmst := transform.GMST(t)

	jobs := make(chan fleetJob, e.config.Workers*2)
	results := make(chan fleetResult, e.config.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < e.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				sv, err := job.model.At(t)
				if err != nil {
					select {
					case results <- fleetResult{err: err}:
					case <-ctx.Done():
						return
					}
					continue
				}
				pos := Position{
					Name:     job.name,
					Time:     t.UTC(),
					Geodetic: transform.ECIToGeodeticWithGMST(sv, gmst),
				}
				select {
				case results <- fleetResult{pos: pos}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, name := range cat.Names() {
			m, ok := models[name]
			if !ok {
				continue
			}
			select {
			case jobs <- fleetJob{name: name, model: m}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	start := time.Now()
	snap := &FleetSnapshot{Time: t.UTC()}
	for res := range results {
		if res.err != nil {
			snap.Failed++
			e.logger.Warn("fleet propagation failed", "error", res.err)
			continue
		}
		snap.Satellites = append(snap.Satellites, res.pos)
	}
	metrics.RecordPropagation(time.Since(start), len(snap.Satellites), snap.Failed)

	// Workers finish in arbitrary order; keep the snapshot stable.
	sort.Slice(snap.Satellites, func(i, j int) bool {
		return snap.Satellites[i].Name < snap.Satellites[j].Name
	})

	if err := ctx.Err(); err != nil {
		return snap, err
	}
	return snap, nil
}
