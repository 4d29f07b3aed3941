// Package transform provides coordinate frame transformations for satellite
// positions.
//
// The propagator outputs Earth-centered inertial positions (TEME); callers need
// sub-satellite latitude/longitude/altitude and observer-relative look angles.
// The inertial-to-Earth-fixed rotation uses GMST only (TEME → PEF ≈ ECEF),
// ignoring polar motion and the equation of equinoxes. That introduces ~50m
// error at most — acceptable for tracking and visibility work.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// WGS-84 ellipsoid parameters (kilometers). Shared by the geodetic solver and
// the observer model so the two agree at the horizon boundary.
const (
	wgs84A  = 6378.137              // semi-major axis (km)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Latitude iteration controls. The loop exits on convergence rather than
// running a fixed count; the cap bounds worst-case cost at extreme geometries.
const (
	latTolerance = 1e-9 // radians
	latMaxIter   = 10
)

// poleEpsilon is the equatorial projection (km) below which a position is
// treated as exactly on the rotation axis. The iterative latitude solver
// divides by p; near the axis that blows up, so ±90° is returned directly.
const poleEpsilon = 1e-6

// StateECI is a satellite position and velocity in the Earth-centered
// inertial (TEME) frame at a specific instant. Values are km and km/s.
// Produced fresh per propagation call and never mutated.
type StateECI struct {
	Time       time.Time
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// Geodetic is a sub-satellite point: latitude/longitude in degrees, altitude
// in km above the reference ellipsoid. Longitude is wrapped to [-180, 180).
type Geodetic struct {
	LatDeg float64 `json:"latitude"`
	LonDeg float64 `json:"longitude"`
	AltKm  float64 `json:"altitude"`
}

// ECIToGeodetic converts an inertial state to the geodetic sub-satellite point
// at the state's own timestamp.
func ECIToGeodetic(sv StateECI) Geodetic {
	return ECIToGeodeticWithGMST(sv, GMST(sv.Time))
}

// ECIToGeodeticWithGMST converts using a precomputed sidereal angle (radians).
// Useful when converting many satellites at the same instant — compute GMST once.
//
// Two stages: rotate into the Earth-fixed frame by the sidereal angle, then
// solve the ellipsoidal latitude by fixed-point iteration until the change
// drops below latTolerance (hard cap latMaxIter iterations).
func ECIToGeodeticWithGMST(sv StateECI, gmst float64) Geodetic {
	lon := math.Atan2(sv.Y, sv.X) - gmst
	lon = wrapLongitude(lon)

	p := math.Sqrt(sv.X*sv.X + sv.Y*sv.Y)

	// On (or numerically at) the rotation axis the latitude is exactly ±90°
	// and the iteration below would divide by p → 0.
	if p < poleEpsilon {
		lat := math.Copysign(90.0, sv.Z)
		// Altitude along the axis: distance above the polar radius b = a(1-f).
		alt := math.Abs(sv.Z) - wgs84A*(1-wgs84F)
		return Geodetic{LatDeg: lat, LonDeg: lon * 180.0 / math.Pi, AltKm: alt}
	}

	// Initial estimate, then iterate to convergence.
	lat := math.Atan2(sv.Z, p*(1-wgs84E2))
	for i := 0; i < latMaxIter; i++ {
		prev := lat
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(sv.Z+wgs84E2*N*sinLat, p)
		if math.Abs(lat-prev) < latTolerance {
			break
		}
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(sv.Z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltKm:  alt,
	}
}

// wrapLongitude normalizes a longitude in radians to [-π, π).
func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon, 2*math.Pi)
	if lon >= math.Pi {
		lon -= 2 * math.Pi
	} else if lon < -math.Pi {
		lon += 2 * math.Pi
	}
	return lon
}

// ECIToECEF rotates an inertial position into the Earth-fixed frame using a
// precomputed sidereal angle. Velocity is not transformed; look-angle and
// ground-track work only needs position.
func ECIToECEF(sv StateECI, gmst float64) (x, y, z float64) {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x = sv.X*cosG + sv.Y*sinG
	y = -sv.X*sinG + sv.Y*cosG
	z = sv.Z
	return x, y, z
}
