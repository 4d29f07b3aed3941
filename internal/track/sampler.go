// Package track samples a satellite's ground track: the sequence of geodetic
// sub-satellite points over a time span.
package track

import (
	"fmt"
	"iter"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/sgp4"
	"github.com/vsafedot/Earth-Sat/internal/transform"
)

// Point is one ground-track sample.
type Point struct {
	Time time.Time `json:"time"`
	transform.Geodetic
}

// Sample yields ground-track points at fixed steps over [start, start+span],
// both endpoints included. Points are produced lazily, in time order, one
// propagation per yielded point; breaking out of the range loop stops the
// work. The sequence is restartable and two iterations yield identical points.
//
// A propagation failure is yielded as the error for that step and ends the
// sequence; earlier points remain valid.
func Sample(m *sgp4.Model, start time.Time, span, step time.Duration) iter.Seq2[Point, error] {
	return func(yield func(Point, error) bool) {
		if step <= 0 {
			yield(Point{}, fmt.Errorf("track: step %v must be positive", step))
			return
		}
		end := start.Add(span)
		for t := start; !t.After(end); t = t.Add(step) {
			sv, err := m.At(t)
			if err != nil {
				yield(Point{Time: t}, fmt.Errorf("track sample at %s: %w", t.UTC().Format(time.RFC3339), err))
				return
			}
			p := Point{Time: t, Geodetic: transform.ECIToGeodetic(sv)}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// Collect materializes a sample sequence into a slice, stopping at the first
// error.
func Collect(seq iter.Seq2[Point, error]) ([]Point, error) {
	var pts []Point
	for p, err := range seq {
		if err != nil {
			return pts, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}
