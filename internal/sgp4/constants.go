package sgp4

import "math"

// Gravity and geometry constants for the near-Earth SGP4 model
// (Spacetrack Report #3 / WGS-72 values, the convention TLEs are fit to).
const (
	twoPi         = 2 * math.Pi
	deg2rad       = math.Pi / 180.0
	minutesPerDay = 1440.0

	xkmper = 6378.135       // Earth equatorial radius (km)
	ae     = 1.0            // distance unit, Earth radii
	xj2    = 0.001082616    // J2 zonal harmonic
	xj3    = -0.00000253881 // J3 zonal harmonic
	xj4    = -0.00000165597 // J4 zonal harmonic
)

// Derived constants.
var (
	xke    = 60.0 / math.Sqrt(xkmper*xkmper*xkmper/398600.8) // sqrt(GM) in ER^1.5/min
	ck2    = 0.5 * xj2 * ae * ae
	ck4    = -0.375 * xj4 * ae * ae * ae * ae
	a3ovk2 = -xj3 / ck2 * ae * ae * ae
	qoms2t = math.Pow((120.0-78.0)/xkmper, 4.0)
	s      = ae * (1.0 + 78.0/xkmper)
)

// deepSpacePeriodMin is the orbital period (minutes) above which the
// near-Earth model no longer applies and SDP4 would be required.
const deepSpacePeriodMin = 225.0
