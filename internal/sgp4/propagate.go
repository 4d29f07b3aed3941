package sgp4

import (
	"math"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/transform"
)

// At propagates the model to the given absolute time and returns the
// inertial state. It is a pure function of (model, t): identical inputs give
// bit-identical output. Failures are *PropagationError values; the model
// never returns a non-finite or sub-surface state silently.
//
// Elapsed time is taken from time.Time directly (integer nanoseconds), so
// epochs decades from now lose no precision to floating-point accumulation.
func (m *Model) At(t time.Time) (transform.StateECI, error) {
	tsince := t.Sub(m.epoch).Minutes()

	// Secular drift of mean anomaly, perigee, and node.
	xmdf := m.ma + m.xmdot*tsince
	omgadf := m.argp + m.omgdot*tsince
	xnoddf := m.raan + m.xnodot*tsince

	argp := omgadf
	xmp := xmdf

	tsq := tsince * tsince
	xnode := xnoddf + m.xnodcf*tsq
	tempa := 1.0 - m.c1*tsince
	tempe := m.bstar * m.c4 * tsince
	templ := m.t2cof * tsq

	if !m.simple {
		delomg := m.omgcof * tsince
		delm := 0.0
		if m.eta != 0.0 {
			delm = m.xmcof * (math.Pow(1.0+m.eta*math.Cos(xmdf), 3.0) - m.delmo)
		}
		temp := delomg + delm
		xmp += temp
		argp -= temp

		tcube := tsq * tsince
		tfour := tsince * tcube
		tempa = tempa - m.d2*tsq - m.d3*tcube - m.d4*tfour
		tempe += m.bstar * m.c5 * (math.Sin(xmp) - m.sinmo)
		templ += m.t3cof*tcube + tfour*(m.t4cof+tsince*m.t5cof)
	}

	a := m.a * tempa * tempa
	e := m.ecc - tempe
	xl := xmp + argp + xnode + m.n*templ

	if e <= -0.001 {
		return transform.StateECI{}, propErrf(NumericalError, m.noradID,
			"perturbed eccentricity %f below -0.001 at tsince %.1f min", e, tsince)
	}
	if e < 1.0e-6 {
		e = 1.0e-6
	} else if e > 1.0-1.0e-6 {
		e = 1.0 - 1.0e-6
	}

	beta2 := 1.0 - e*e
	xn := xke / math.Pow(a, 1.5)

	// Long-period periodics.
	axn := e * math.Cos(argp)
	temp11 := 1.0 / (a * beta2)
	xll := temp11 * m.xlcof * axn
	aynl := temp11 * m.aycof
	xlt := xl + xll
	ayn := e*math.Sin(argp) + aynl

	elsq := axn*axn + ayn*ayn
	if elsq >= 1.0 {
		return transform.StateECI{}, propErrf(NumericalError, m.noradID,
			"perturbed eccentricity vector magnitude² %f ≥ 1 at tsince %.1f min", elsq, tsince)
	}

	// Solve Kepler's equation for the eccentric longitude.
	capu := math.Mod(xlt-xnode, twoPi)
	epw := capu

	var sinepw, cosepw, ecose, esine float64
	maxStep := 1.25 * math.Sqrt(elsq)

	for i := 0; i < 10; i++ {
		sinepw = math.Sin(epw)
		cosepw = math.Cos(epw)
		ecose = axn*cosepw + ayn*sinepw
		esine = axn*sinepw - ayn*cosepw
		f := capu - epw + esine
		if math.Abs(f) < 1.0e-12 {
			break
		}
		delta := f / (1.0 - ecose)
		if i == 0 {
			// Cap the first Newton step to keep the solver in basin.
			delta = math.Max(-maxStep, math.Min(maxStep, delta))
		}
		epw += delta
	}

	// Short-period preliminary quantities.
	temp21 := 1.0 - elsq
	if temp21 < 0.0 {
		temp21 = 0.0
	}
	pl := a * temp21
	if pl < 0.0 {
		return transform.StateECI{}, propErrf(NumericalError, m.noradID,
			"semi-latus rectum %f < 0 at tsince %.1f min", pl, tsince)
	}

	r := a * (1.0 - ecose)
	if r == 0.0 {
		r = 1e-9
	}
	invR := 1.0 / r
	rdot := xke * math.Sqrt(a) * esine * invR
	rfdot := xke * math.Sqrt(pl) * invR

	aOverR := a * invR
	betal := math.Sqrt(temp21)
	temp33 := 1.0 / (1.0 + betal)

	cosu := aOverR * (cosepw - axn + ayn*esine*temp33)
	sinu := aOverR * (sinepw - ayn - axn*esine*temp33)
	u := math.Atan2(sinu, cosu)

	sin2u := 2.0 * sinu * cosu
	cos2u := 2.0*cosu*cosu - 1.0

	// Short-period periodics.
	invPl := 1.0 / pl
	temp42 := ck2 * invPl
	temp43 := temp42 * invPl

	rk := r*(1.0-1.5*temp43*betal*m.x3thm1) + 0.5*temp42*m.x1mth2*cos2u
	uk := u - 0.25*temp43*m.x7thm1*sin2u
	xnodek := xnode + 1.5*temp43*m.cosio*sin2u
	xinck := m.incl + 1.5*temp43*m.cosio*m.sinio*cos2u
	rdotk := rdot - xn*temp42*m.x1mth2*sin2u
	rfdotk := rfdot + xn*temp42*(m.x1mth2*cos2u+1.5*m.x3thm1)

	// Decay: the perturbed radius dropped below the surface.
	if rk < 1.0 {
		return transform.StateECI{}, propErrf(Decayed, m.noradID,
			"radius %.4f ER below surface at tsince %.1f min", rk, tsince)
	}

	// Orientation vectors.
	sinuk := math.Sin(uk)
	cosuk := math.Cos(uk)
	sinik := math.Sin(xinck)
	cosik := math.Cos(xinck)
	sinnok := math.Sin(xnodek)
	cosnok := math.Cos(xnodek)

	xmx := -sinnok * cosik
	xmy := cosnok * cosik

	ux := xmx*sinuk + cosnok*cosuk
	uy := xmy*sinuk + sinnok*cosuk
	uz := sinik * sinuk

	vx := xmx*cosuk - cosnok*sinuk
	vy := xmy*cosuk - sinnok*sinuk
	vz := sinik * cosuk

	// ER → km, ER/min → km/s.
	const vFactor = xkmper / 60.0
	sv := transform.StateECI{
		Time: t,
		X:    rk * ux * xkmper,
		Y:    rk * uy * xkmper,
		Z:    rk * uz * xkmper,
		VX:   (rdotk*ux + rfdotk*vx) * vFactor,
		VY:   (rdotk*uy + rfdotk*vy) * vFactor,
		VZ:   (rdotk*uz + rfdotk*vz) * vFactor,
	}

	if !finite(sv.X) || !finite(sv.Y) || !finite(sv.Z) ||
		!finite(sv.VX) || !finite(sv.VY) || !finite(sv.VZ) {
		return transform.StateECI{}, propErrf(NumericalError, m.noradID,
			"non-finite state at tsince %.1f min", tsince)
	}

	return sv, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
