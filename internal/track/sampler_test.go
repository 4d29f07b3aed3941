package track

import (
	"testing"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/sgp4"
	"github.com/vsafedot/Earth-Sat/internal/tle"
)

// Real ISS element set.
const (
	issLine1 = "1 25544U 98067A   23040.53492407  .00000602  00000-0  21163-4 0  9998"
	issLine2 = "2 25544  51.6375  24.9244 0005533 115.3655 243.0075 15.16785044513894"
)

func issModel(t *testing.T) *sgp4.Model {
	t.Helper()
	set, err := tle.ParseSet(issLine1, issLine2, "ISS (ZARYA)")
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}
	m, err := sgp4.New(set)
	if err != nil {
		t.Fatalf("sgp4.New: %v", err)
	}
	return m
}

func TestSample(t *testing.T) {
	m := issModel(t)
	start := m.Epoch()

	pts, err := Collect(Sample(m, start, 90*time.Minute, 30*time.Second))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	// Both endpoints included: span/step + 1 points.
	want := int(90*time.Minute/(30*time.Second)) + 1
	if len(pts) != want {
		t.Fatalf("got %d points, want %d", len(pts), want)
	}

	for i, p := range pts {
		if !p.Time.Equal(start.Add(time.Duration(i) * 30 * time.Second)) {
			t.Errorf("point %d: time %v off grid", i, p.Time)
		}
		if p.LatDeg < -90 || p.LatDeg > 90 {
			t.Errorf("point %d: lat %.4f out of range", i, p.LatDeg)
		}
		if p.LonDeg < -180 || p.LonDeg >= 180 {
			t.Errorf("point %d: lon %.4f out of range", i, p.LonDeg)
		}
		if p.AltKm < 400 || p.AltKm > 600 {
			t.Errorf("point %d: alt %.1f km outside the orbit's altitude band", i, p.AltKm)
		}
	}
}

// TestSampleRestartable iterates the same sequence twice and expects
// identical points both times.
func TestSampleRestartable(t *testing.T) {
	m := issModel(t)
	seq := Sample(m, m.Epoch(), 10*time.Minute, time.Minute)

	first, err := Collect(seq)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := Collect(seq)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("point %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// TestSampleLazy breaks out of the loop early; the sampler must stop
// without error and without propagating the rest of the span.
func TestSampleLazy(t *testing.T) {
	m := issModel(t)

	var n int
	for _, err := range Sample(m, m.Epoch(), 24*time.Hour, time.Second) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("consumed %d points, want 3", n)
	}
}

func TestSampleInvalidStep(t *testing.T) {
	m := issModel(t)

	_, err := Collect(Sample(m, m.Epoch(), time.Hour, 0))
	if err == nil {
		t.Fatal("expected error for zero step")
	}
}
