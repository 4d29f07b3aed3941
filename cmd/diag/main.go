// Command diag is a CLI check: load a TLE file, print positions and passes
// for a satellite over an observer. Useful for eyeballing the propagation
// chain without running the server.
//
//	diag -tle catalog.txt -name "ISS (ZARYA)" -lat 39.7392 -lon -104.9903 -hours 24
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/engine"
	"github.com/vsafedot/Earth-Sat/internal/tle"
)

func main() {
	var (
		tlePath = flag.String("tle", "", "path to a three-line element file")
		name    = flag.String("name", "", "satellite name (default: first in catalog)")
		lat     = flag.Float64("lat", 39.7392, "observer latitude (degrees)")
		lon     = flag.Float64("lon", -104.9903, "observer longitude (degrees)")
		alt     = flag.Float64("alt", 1.609, "observer altitude (km)")
		hours   = flag.Float64("hours", 24, "pass search window (hours)")
		minElev = flag.Float64("min-elevation", 10, "visibility threshold (degrees)")
	)
	flag.Parse()

	if *tlePath == "" {
		fmt.Fprintln(os.Stderr, "usage: diag -tle <file> [-name <satellite>] [-lat -lon -alt -hours -min-elevation]")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	store := tle.NewStore(0)
	eng := engine.New(store, engine.Config{MinElevationDeg: *minElev}, logger)

	f, err := os.Open(*tlePath)
	if err != nil {
		fmt.Println("ERROR opening TLE file:", err)
		os.Exit(1)
	}
	cat, err := eng.LoadCatalog(f)
	f.Close()
	if err != nil {
		fmt.Println("ERROR parsing TLE file:", err)
		os.Exit(1)
	}

	names := cat.Names()
	fmt.Printf("Loaded %d satellites (%d records skipped)\n", len(names), len(cat.Skipped))
	if len(names) == 0 {
		os.Exit(1)
	}

	target := *name
	if target == "" {
		target = names[0]
	}

	now := time.Now().UTC()
	pos, err := eng.PositionAt(target, now)
	if err != nil {
		fmt.Println("ERROR propagating:", err)
		os.Exit(1)
	}
	fmt.Printf("%s at %v:\n  lat=%.4f° lon=%.4f° alt=%.1f km\n",
		target, now.Format(time.RFC3339), pos.LatDeg, pos.LonDeg, pos.AltKm)

	topo, err := eng.Visibility(target, *lat, *lon, *alt, now, *minElev)
	if err != nil {
		fmt.Println("ERROR computing visibility:", err)
		os.Exit(1)
	}
	fmt.Printf("From observer (%.4f, %.4f):\n  az=%.1f° el=%.1f° range=%.0f km visible=%v\n",
		*lat, *lon, topo.AzimuthDeg, topo.ElevationDeg, topo.RangeKm, topo.Visible)

	window := time.Duration(*hours * float64(time.Hour))
	fmt.Printf("\nPasses over the next %.0fh (min elevation %.1f°):\n", *hours, *minElev)

	result, err := eng.PredictPasses(context.Background(), target, *lat, *lon, *alt, now, window, *minElev)
	if err != nil {
		fmt.Println("ERROR predicting passes:", err)
		os.Exit(1)
	}
	for i, p := range result {
		truncated := ""
		if p.Truncated {
			truncated = " (truncated)"
		}
		fmt.Printf("  pass %d: rise=%v maxEl=%.1f° set=%v dur=%.0fs%s\n",
			i, p.Rise.Format(time.RFC3339), p.MaxElevation,
			p.Set.Format(time.RFC3339), p.Duration().Seconds(), truncated)
	}
	fmt.Printf("\nTotal passes found: %d\n", len(result))
}
