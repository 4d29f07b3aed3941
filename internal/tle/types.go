// Package tle parses and holds NORAD two-line element sets.
//
// A Set is immutable once parsed; every field is reached through read-only
// accessors. Malformed input is rejected with a *ParseError describing the
// offending line and field.
package tle

import "time"

// Set is a single satellite's parsed two-line element set.
type Set struct {
	name           string
	noradID        int
	classification byte
	intlDesignator string

	epochYear int // full year
	epochDay  float64
	epoch     time.Time

	meanMotionDot  float64 // rev/day², first derivative / 2 as encoded
	meanMotionDDot float64 // rev/day³, second derivative / 6 as encoded
	bstar          float64 // drag term (1/Earth radii)
	elementNumber  int

	inclinationDeg float64
	raanDeg        float64
	eccentricity   float64
	argPerigeeDeg  float64
	meanAnomalyDeg float64
	meanMotion     float64 // rev/day
	revNumber      int
}

// Name returns the catalog name from the record's title line.
func (s *Set) Name() string { return s.name }

// NoradID returns the NORAD catalog number.
func (s *Set) NoradID() int { return s.noradID }

// Epoch returns the element set epoch as an absolute UTC instant.
func (s *Set) Epoch() time.Time { return s.epoch }

// InclinationDeg returns the orbital inclination in degrees.
func (s *Set) InclinationDeg() float64 { return s.inclinationDeg }

// RAANDeg returns the right ascension of the ascending node in degrees.
func (s *Set) RAANDeg() float64 { return s.raanDeg }

// Eccentricity returns the orbital eccentricity.
func (s *Set) Eccentricity() float64 { return s.eccentricity }

// ArgPerigeeDeg returns the argument of perigee in degrees.
func (s *Set) ArgPerigeeDeg() float64 { return s.argPerigeeDeg }

// MeanAnomalyDeg returns the mean anomaly at epoch in degrees.
func (s *Set) MeanAnomalyDeg() float64 { return s.meanAnomalyDeg }

// MeanMotion returns the mean motion in revolutions per day.
func (s *Set) MeanMotion() float64 { return s.meanMotion }

// Bstar returns the B* drag term in inverse Earth radii.
func (s *Set) Bstar() float64 { return s.bstar }

// MeanMotionDot returns the first time derivative of mean motion, halved,
// as encoded in the element set (rev/day²).
func (s *Set) MeanMotionDot() float64 { return s.meanMotionDot }

// ElementNumber returns the element set number.
func (s *Set) ElementNumber() int { return s.elementNumber }

// RevNumber returns the revolution number at epoch.
func (s *Set) RevNumber() int { return s.revNumber }
