// Package sgp4 implements the near-Earth SGP4 analytic propagator: secular
// drift of node and perigee from drag and Earth oblateness plus long- and
// short-period periodic corrections, per Spacetrack Report #3 and Vallado's
// revised SGP4. Deep-space orbits (period ≥ 225 min) are rejected at model
// construction; SDP4 is not implemented.
package sgp4

import (
	"fmt"
	"math"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/tle"
)

// Model holds a satellite's mean elements converted to propagation units
// plus every derived constant the per-call path needs. Immutable after New;
// safe for concurrent use.
type Model struct {
	noradID int
	epoch   time.Time

	// Mean elements at epoch (radians, rad/min, Earth radii).
	ecc   float64
	incl  float64
	argp  float64
	raan  float64
	ma    float64
	n     float64 // Kozai mean motion (rad/min)
	a     float64 // recovered semi-major axis (ER)
	bstar float64

	// Inclination-derived terms.
	cosio, sinio           float64
	x3thm1, x1mth2, x7thm1 float64
	xlcof, aycof           float64

	// Drag and secular coefficients.
	c1, c4, c5     float64
	d2, d3, d4     float64
	xmdot          float64
	omgdot         float64
	xnodot, xnodcf float64
	t2cof, t3cof   float64
	t4cof, t5cof   float64
	eta            float64
	delmo, sinmo   float64
	omgcof, xmcof  float64

	// Low-perigee sets use the truncated drag model.
	simple bool
}

// New builds a propagation model from a parsed element set. It recovers the
// Kozai mean motion and semi-major axis and precomputes the secular and
// periodic coefficients so that At is a pure function.
func New(set *tle.Set) (*Model, error) {
	m := &Model{
		noradID: set.NoradID(),
		epoch:   set.Epoch(),
		ecc:     set.Eccentricity(),
		incl:    set.InclinationDeg() * deg2rad,
		argp:    set.ArgPerigeeDeg() * deg2rad,
		raan:    set.RAANDeg() * deg2rad,
		ma:      set.MeanAnomalyDeg() * deg2rad,
		n:       set.MeanMotion() * twoPi / minutesPerDay,
		bstar:   set.Bstar(),
	}

	// Recover the original (Kozai) mean motion and semi-major axis from the
	// TLE mean motion.
	a1 := math.Pow(xke/m.n, 2.0/3.0)
	m.cosio = math.Cos(m.incl)
	m.sinio = math.Sin(m.incl)
	theta2 := m.cosio * m.cosio
	m.x3thm1 = 3.0*theta2 - 1.0
	m.x1mth2 = 1.0 - theta2
	m.x7thm1 = 7.0*theta2 - 1.0

	eosq := m.ecc * m.ecc
	betao2 := 1.0 - eosq
	betao := math.Sqrt(betao2)

	del1 := 1.5 * ck2 * m.x3thm1 / (betao * betao2) / (a1 * a1)
	a0 := a1 * (1.0 - del1*(1.0/3.0+del1*(1.0+del1*134.0/81.0)))
	del0 := 1.5 * ck2 * m.x3thm1 / (betao * betao2) / (a0 * a0)

	m.n = m.n / (1.0 + del0)
	m.a = a0 / (1.0 - del0)

	if period := twoPi / m.n; period >= deepSpacePeriodMin {
		return nil, fmt.Errorf("sgp4: NORAD %d: period %.1f min is deep space, not supported", m.noradID, period)
	}

	// Low perigee switches: truncated drag model below 220 km, adjusted
	// density parameters below 156 km.
	perigeeKm := (m.a*(1.0-m.ecc) - ae) * xkmper
	m.simple = perigeeKm < 220.0

	s4 := s
	qoms24 := qoms2t
	if perigeeKm < 156.0 {
		s4 = perigeeKm - 78.0
		if perigeeKm < 98.0 {
			s4 = 20.0
		}
		qoms24 = math.Pow((120.0-s4)*ae/xkmper, 4.0)
		s4 = s4/xkmper + ae
	}

	pinvsq := 1.0 / (m.a * m.a * betao2 * betao2)
	tsi := 1.0 / (m.a - s4)
	m.eta = m.a * m.ecc * tsi
	etasq := m.eta * m.eta
	eeta := m.ecc * m.eta
	psisq := math.Abs(1.0 - etasq)
	if psisq == 0 {
		psisq = 1e-12
	}
	coef := qoms24 * math.Pow(tsi, 4.0)
	coef1 := coef / math.Pow(psisq, 3.5)

	c2 := coef1 * m.n * (m.a*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.75*ck2*tsi/psisq*m.x3thm1*(8.0+3.0*etasq*(8.0+etasq)))
	m.c1 = m.bstar * c2

	m.c4 = 2.0 * m.n * coef1 * m.a * betao2 *
		(m.eta*(2.0+0.5*etasq) + m.ecc*(0.5+2.0*etasq) -
			2.0*ck2*tsi/(m.a*psisq)*
				(-3.0*m.x3thm1*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
					0.75*m.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*m.argp)))

	theta4 := theta2 * theta2
	temp1 := 3.0 * ck2 * pinvsq * m.n
	temp2 := temp1 * ck2 * pinvsq
	temp3 := 1.25 * ck4 * pinvsq * pinvsq * m.n

	m.xmdot = m.n + 0.5*temp1*betao*m.x3thm1 +
		0.0625*temp2*betao*(13.0-78.0*theta2+137.0*theta4)

	m.omgdot = -0.5*temp1*(1.0-5.0*theta2) +
		0.0625*temp2*(7.0-114.0*theta2+395.0*theta4) +
		temp3*(3.0-36.0*theta2+49.0*theta4)

	xhdot1 := -temp1 * m.cosio
	m.xnodot = xhdot1 + (0.5*temp2*(4.0-19.0*theta2)+
		2.0*temp3*(3.0-7.0*theta2))*m.cosio

	m.xnodcf = 3.5 * betao2 * xhdot1 * m.c1
	m.t2cof = 1.5 * m.c1

	// Long-period periodic coefficients, from the epoch inclination. The
	// (1 + cosio) denominator degenerates for retrograde-equatorial sets.
	if math.Abs(m.cosio+1.0) > 1.5e-12 {
		m.xlcof = 0.125 * a3ovk2 * m.sinio * (3.0 + 5.0*m.cosio) / (1.0 + m.cosio)
	} else {
		m.xlcof = 0.125 * a3ovk2 * m.sinio * (3.0 + 5.0*m.cosio) / 1.5e-12
	}
	m.aycof = 0.25 * a3ovk2 * m.sinio

	var c3 float64
	if m.ecc > 1.0e-4 {
		c3 = coef * tsi * a3ovk2 * m.n * ae * m.sinio / m.ecc
	}
	m.c5 = 2.0 * coef1 * m.a * betao2 * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)
	m.omgcof = m.bstar * c3 * math.Cos(m.argp)

	m.xmcof = 0.0
	if m.ecc > 1.0e-4 {
		m.xmcof = -2.0 / 3.0 * coef * m.bstar * ae / eeta
	}
	m.delmo = math.Pow(1.0+m.eta*math.Cos(m.ma), 3.0)
	m.sinmo = math.Sin(m.ma)

	if !m.simple {
		c1sq := m.c1 * m.c1
		m.d2 = 4.0 * m.a * tsi * c1sq
		dtemp := m.d2 * tsi * m.c1 / 3.0
		m.d3 = (17.0*m.a + s4) * dtemp
		m.d4 = 0.5 * dtemp * m.a * tsi * (221.0*m.a + 31.0*s4) * m.c1
		m.t3cof = m.d2 + 2.0*c1sq
		m.t4cof = 0.25 * (3.0*m.d3 + m.c1*(12.0*m.d2+10.0*c1sq))
		m.t5cof = 0.2 * (3.0*m.d4 + 12.0*m.c1*m.d3 + 6.0*m.d2*m.d2 +
			15.0*c1sq*(2.0*m.d2+c1sq))
	}

	return m, nil
}

// NoradID returns the catalog number the model was built from.
func (m *Model) NoradID() int { return m.noradID }

// Epoch returns the element set epoch.
func (m *Model) Epoch() time.Time { return m.epoch }
