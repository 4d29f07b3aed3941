package tle

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

// Real ISS element set (epoch day 40.53492407 of 2023).
const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   23040.53492407  .00000602  00000-0  21163-4 0  9998"
	issLine2 = "2 25544  51.6375  24.9244 0005533 115.3655 243.0075 15.16785044513894"
)

// fixChecksum recomputes the final digit so hand-edited fixtures stay valid.
func fixChecksum(line string) string {
	return line[:68] + string(rune('0'+checksum(line)))
}

func TestParseSetISS(t *testing.T) {
	set, err := ParseSet(issLine1, issLine2, issName)
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}

	if set.Name() != issName {
		t.Errorf("Name = %q, want %q", set.Name(), issName)
	}
	if set.NoradID() != 25544 {
		t.Errorf("NoradID = %d, want 25544", set.NoradID())
	}

	checks := []struct {
		name string
		got  float64
		want float64
		tol  float64
	}{
		{"inclination", set.InclinationDeg(), 51.6375, 1e-9},
		{"raan", set.RAANDeg(), 24.9244, 1e-9},
		{"eccentricity", set.Eccentricity(), 0.0005533, 1e-10},
		{"arg perigee", set.ArgPerigeeDeg(), 115.3655, 1e-9},
		{"mean anomaly", set.MeanAnomalyDeg(), 243.0075, 1e-9},
		{"mean motion", set.MeanMotion(), 15.16785044, 1e-9},
		{"bstar", set.Bstar(), 2.1163e-5, 1e-12},
		{"mean motion dot", set.MeanMotionDot(), 0.00000602, 1e-12},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > c.tol {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	// Epoch: day 40.53492407 of 2023 = Feb 9 + 0.53492407 days.
	want := time.Date(2023, 2, 9, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(math.Round(0.53492407 * 86400 * 1e9)))
	if !set.Epoch().Equal(want) {
		t.Errorf("Epoch = %v, want %v", set.Epoch(), want)
	}
}

func TestParseSetEpochYearConvention(t *testing.T) {
	tests := []struct {
		yy   string
		want int
	}{
		{"57", 1957},
		{"99", 1999},
		{"00", 2000},
		{"23", 2023},
		{"56", 2056},
	}
	for _, tt := range tests {
		line1 := fixChecksum(issLine1[:18] + tt.yy + issLine1[20:])
		set, err := ParseSet(line1, issLine2, "")
		if err != nil {
			t.Fatalf("yy=%s: %v", tt.yy, err)
		}
		if set.Epoch().Year() != tt.want {
			t.Errorf("yy=%s: epoch year = %d, want %d", tt.yy, set.Epoch().Year(), tt.want)
		}
	}
}

func TestParseSetChecksumCorruption(t *testing.T) {
	// Flip one payload digit without updating the checksum.
	corrupted := strings.Replace(issLine1, "23040", "23041", 1)
	_, err := ParseSet(corrupted, issLine2, issName)
	if err == nil {
		t.Fatal("expected checksum error, got nil")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T is not *ParseError", err)
	}
	if perr.Line != 1 || perr.Field != "checksum" {
		t.Errorf("got line=%d field=%q, want line=1 field=checksum", perr.Line, perr.Field)
	}
}

func TestParseSetRejects(t *testing.T) {
	tests := []struct {
		name  string
		line1 string
		line2 string
	}{
		{"short line 1", issLine1[:50], issLine2},
		{"short line 2", issLine1, issLine2[:68]},
		{"wrong line number", fixChecksum("3" + issLine1[1:]), issLine2},
		{"swapped lines", issLine2, issLine1},
		{
			"catalog number mismatch",
			issLine1,
			fixChecksum(issLine2[:2] + "25545" + issLine2[7:]),
		},
		{
			"non-numeric inclination",
			issLine1,
			fixChecksum(issLine2[:8] + " 51.63XX" + issLine2[16:]),
		},
		{
			"inclination out of range",
			issLine1,
			fixChecksum(issLine2[:8] + "181.0000" + issLine2[16:]),
		},
		{
			"zero mean motion",
			issLine1,
			fixChecksum(issLine2[:52] + " 0.00000000" + issLine2[63:]),
		},
		{
			"epoch day out of range",
			fixChecksum(issLine1[:20] + "367.53492407" + issLine1[32:]),
			issLine2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSet(tt.line1, tt.line2, "")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("error %T is not *ParseError", err)
			}
		})
	}
}

func TestParseExpField(t *testing.T) {
	tests := []struct {
		field string
		want  float64
	}{
		{" 21163-4", 2.1163e-5},
		{"-11606-4", -1.1606e-5},
		{" 00000-0", 0},
		{" 00000+0", 0},
		{" 30099-3", 3.0099e-4},
		{" 12345+1", 1.2345},
	}
	for _, tt := range tests {
		got, err := parseExpField(tt.field)
		if err != nil {
			t.Errorf("parseExpField(%q): %v", tt.field, err)
			continue
		}
		if math.Abs(got-tt.want) > math.Abs(tt.want)*1e-12+1e-15 {
			t.Errorf("parseExpField(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestLinesRoundTrip(t *testing.T) {
	set, err := ParseSet(issLine1, issLine2, issName)
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}

	l1, l2 := set.Lines()
	if len(l1) != 69 || len(l2) != 69 {
		t.Fatalf("line lengths %d/%d, want 69/69", len(l1), len(l2))
	}

	again, err := ParseSet(l1, l2, set.Name())
	if err != nil {
		t.Fatalf("reparse of formatted lines: %v\nline1: %q\nline2: %q", err, l1, l2)
	}

	if again.NoradID() != set.NoradID() {
		t.Errorf("NoradID changed: %d vs %d", again.NoradID(), set.NoradID())
	}
	if !again.Epoch().Equal(set.Epoch()) {
		t.Errorf("Epoch changed: %v vs %v", again.Epoch(), set.Epoch())
	}
	pairs := []struct {
		name      string
		a, b, tol float64
	}{
		{"inclination", again.InclinationDeg(), set.InclinationDeg(), 1e-4},
		{"raan", again.RAANDeg(), set.RAANDeg(), 1e-4},
		{"eccentricity", again.Eccentricity(), set.Eccentricity(), 1e-7},
		{"arg perigee", again.ArgPerigeeDeg(), set.ArgPerigeeDeg(), 1e-4},
		{"mean anomaly", again.MeanAnomalyDeg(), set.MeanAnomalyDeg(), 1e-4},
		{"mean motion", again.MeanMotion(), set.MeanMotion(), 1e-8},
		{"bstar", again.Bstar(), set.Bstar(), math.Abs(set.Bstar()) * 1e-4},
	}
	for _, p := range pairs {
		if math.Abs(p.a-p.b) > p.tol {
			t.Errorf("%s changed across round trip: %v vs %v", p.name, p.a, p.b)
		}
	}
}
