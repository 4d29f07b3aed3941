package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/tle"
)

const catalogFixture = `ISS (ZARYA)
1 25544U 98067A   23040.53492407  .00000602  00000-0  21163-4 0  9998
2 25544  51.6375  24.9244 0005533 115.3655 243.0075 15.16785044513894
STARLINK-1007
1 43017U 17073A   20357.73427318  .00000042  00000-0  00000-0 0  9991
2 43017  53.0537 241.3127 0002602  55.2717 304.8218 15.06330636235398
`

var issEpoch = time.Date(2023, 2, 9, 0, 0, 0, 0, time.UTC).
	Add(time.Duration(math.Round(0.53492407 * 86400 * 1e9)))

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T) (*Engine, *tle.Store) {
	t.Helper()
	store := tle.NewStore(0)
	eng := New(store, Config{Workers: 2}, testLogger())
	if _, err := eng.LoadCatalog(strings.NewReader(catalogFixture)); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	return eng, store
}

func TestNames(t *testing.T) {
	eng, _ := testEngine(t)

	names, err := eng.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	want := []string{"ISS (ZARYA)", "STARLINK-1007"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("Names = %v, want %v", names, want)
	}
}

func TestNamesNoCatalog(t *testing.T) {
	eng := New(tle.NewStore(0), Config{}, testLogger())

	_, err := eng.Names()
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want *InputError", err)
	}
}

func TestPositionAt(t *testing.T) {
	eng, _ := testEngine(t)

	pos, err := eng.PositionAt("ISS (ZARYA)", issEpoch)
	if err != nil {
		t.Fatalf("PositionAt: %v", err)
	}
	if pos.Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q", pos.Name)
	}
	if math.Abs(pos.LatDeg) > 51.9 {
		t.Errorf("|lat| = %.4f exceeds inclination bound", pos.LatDeg)
	}
	// Mean motion 15.168 rev/day puts this set near 516 km.
	if pos.AltKm < 400 || pos.AltKm > 600 {
		t.Errorf("alt = %.1f km outside the orbit's altitude band", pos.AltKm)
	}
}

func TestPositionAtUnknownName(t *testing.T) {
	eng, _ := testEngine(t)

	_, err := eng.PositionAt("NO SUCH SAT", issEpoch)
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want *InputError", err)
	}
	if inputErr.Field != "name" {
		t.Errorf("Field = %q, want name", inputErr.Field)
	}
}

func TestValidateObserver(t *testing.T) {
	tests := []struct {
		name          string
		lat, lon, alt float64
		ok            bool
	}{
		{"valid", 40.7, -74.0, 0.01, true},
		{"north pole", 90, 0, 0, true},
		{"lat too high", 90.1, 0, 0, false},
		{"lat too low", -91, 0, 0, false},
		{"lon too high", 0, 180.1, 0, false},
		{"lon too low", 0, -181, 0, false},
		{"lat NaN", math.NaN(), 0, 0, false},
		{"alt too low", 0, 0, -1, false},
		{"alt too high", 0, 0, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateObserver(tt.lat, tt.lon, tt.alt)
			if (err == nil) != tt.ok {
				t.Errorf("validateObserver(%v, %v, %v) = %v, want ok=%v", tt.lat, tt.lon, tt.alt, err, tt.ok)
			}
		})
	}
}

func TestVisibilityDefaultThreshold(t *testing.T) {
	eng, _ := testEngine(t)

	topo, err := eng.Visibility("ISS (ZARYA)", 40.7128, -74.006, 0.01, issEpoch, math.NaN())
	if err != nil {
		t.Fatalf("Visibility: %v", err)
	}
	// NaN threshold resolves to the configured default of 10 degrees.
	if got := topo.ElevationDeg >= 10; got != topo.Visible {
		t.Errorf("Visible = %v at elevation %.4f with default threshold", topo.Visible, topo.ElevationDeg)
	}
	if topo.RangeKm <= 0 {
		t.Errorf("RangeKm = %v", topo.RangeKm)
	}
}

func TestVisibilityBadObserver(t *testing.T) {
	eng, _ := testEngine(t)

	_, err := eng.Visibility("ISS (ZARYA)", 95, 0, 0, issEpoch, math.NaN())
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want *InputError", err)
	}
}

func TestModelCacheReuse(t *testing.T) {
	eng, store := testEngine(t)

	m1, err := eng.Model("ISS (ZARYA)")
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	m2, err := eng.Model("ISS (ZARYA)")
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if m1 != m2 {
		t.Error("same catalog returned different model instances")
	}

	// A new catalog invalidates the cache.
	if _, err := eng.LoadCatalog(strings.NewReader(catalogFixture)); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if store.Get() == nil {
		t.Fatal("catalog missing after reload")
	}
	m3, err := eng.Model("ISS (ZARYA)")
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if m1 == m3 {
		t.Error("model cache not rebuilt for new catalog")
	}
}

func TestPredictPassesISS(t *testing.T) {
	eng, _ := testEngine(t)

	result, err := eng.PredictPasses(context.Background(), "ISS (ZARYA)",
		40.7128, -74.006, 0.01, issEpoch, 24*time.Hour, 0)
	if err != nil {
		t.Fatalf("PredictPasses: %v", err)
	}
	if len(result) == 0 {
		t.Fatal("expected at least one pass")
	}
}

func TestGroundTrack(t *testing.T) {
	eng, _ := testEngine(t)

	pts, err := eng.GroundTrack("ISS (ZARYA)", issEpoch, 90*time.Minute, 30*time.Second)
	if err != nil {
		t.Fatalf("GroundTrack: %v", err)
	}
	want := int(90*time.Minute/(30*time.Second)) + 1
	if len(pts) != want {
		t.Errorf("got %d points, want %d", len(pts), want)
	}

	_, err = eng.GroundTrack("ISS (ZARYA)", issEpoch, -time.Hour, 0)
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Errorf("negative span: err = %v, want *InputError", err)
	}
}

func TestSnapshot(t *testing.T) {
	eng, _ := testEngine(t)

	snap, err := eng.Snapshot(context.Background(), issEpoch)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Satellites) != 2 {
		t.Fatalf("got %d satellites, want 2", len(snap.Satellites))
	}
	// Sorted by name for stable output.
	if snap.Satellites[0].Name != "ISS (ZARYA)" || snap.Satellites[1].Name != "STARLINK-1007" {
		t.Errorf("unexpected order: %s, %s", snap.Satellites[0].Name, snap.Satellites[1].Name)
	}
	for _, s := range snap.Satellites {
		if s.LatDeg < -90 || s.LatDeg > 90 {
			t.Errorf("%s: lat %.4f out of range", s.Name, s.LatDeg)
		}
	}
}
