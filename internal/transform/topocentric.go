package transform

import "math"

// Observer holds a ground observer's location in both geodetic and ECEF
// frames. ECEF coordinates are precomputed once so they can be reused across
// many satellite lookups. Built from the same ellipsoid constants as
// ECIToGeodetic, so a satellite exactly on the observer's horizon is seen
// consistently by both paths.
type Observer struct {
	LatDeg, LonDeg, AltKm float64 // geodetic
	latRad, lonRad        float64
	ecefX, ecefY, ecefZ   float64 // precomputed ECEF (km)
}

// LookAngles holds azimuth, elevation, and slant range from observer to satellite.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// NewObserver creates an Observer from geodetic coordinates.
// Latitude and longitude are in degrees, altitude in km above the ellipsoid.
func NewObserver(latDeg, lonDeg, altKm float64) Observer {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	sinLon := math.Sin(lon)
	cosLon := math.Cos(lon)

	// Radius of curvature in the prime vertical.
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	x := (N + altKm) * cosLat * cosLon
	y := (N + altKm) * cosLat * sinLon
	z := (N*(1-wgs84E2) + altKm) * sinLat

	return Observer{
		LatDeg: latDeg,
		LonDeg: lonDeg,
		AltKm:  altKm,
		latRad: lat,
		lonRad: lon,
		ecefX:  x,
		ecefY:  y,
		ecefZ:  z,
	}
}

// LookAnglesAt computes azimuth, elevation, and range from the observer to a
// satellite's inertial state. The satellite position is rotated into the
// Earth-fixed frame at the state's timestamp first.
func LookAnglesAt(obs Observer, sv StateECI) LookAngles {
	return LookAnglesAtGMST(obs, sv, GMST(sv.Time))
}

// LookAnglesAtGMST is LookAnglesAt with a precomputed sidereal angle.
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado Section 4.4.
// Azimuth: 0 = North, measured clockwise. Elevation: 0 = horizon, 90 = zenith.
func LookAnglesAtGMST(obs Observer, sv StateECI, gmst float64) LookAngles {
	satX, satY, satZ := ECIToECEF(sv, gmst)

	// Range vector in ECEF.
	rx := satX - obs.ecefX
	ry := satY - obs.ecefY
	rz := satZ - obs.ecefZ

	sinLat := math.Sin(obs.latRad)
	cosLat := math.Cos(obs.latRad)
	sinLon := math.Sin(obs.lonRad)
	cosLon := math.Cos(obs.lonRad)

	// Rotate ECEF range vector to SEZ (South, East, Zenith).
	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rangeMag := math.Sqrt(south*south + east*east + zenith*zenith)

	// Elevation: angle above horizon.
	el := math.Asin(zenith / rangeMag)

	// Azimuth: measured clockwise from North.
	// In SEZ, North = -South direction, so az = atan2(east, -south).
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeMag,
	}
}
