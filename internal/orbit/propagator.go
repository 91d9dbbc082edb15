// Package orbit propagates Keplerian elements to heliocentric state vectors
// and derives Earth-relative quantities from them. The Earth model is a
// circular 1 AU orbit, and the impact-site mapping is illustrative.
package orbit

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/mat"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

const (
	// GaussianK is the Gaussian gravitational constant in rad/day.
	GaussianK = 0.01720209895
	// MuSun is the solar gravitational parameter in AU^3/day^2.
	MuSun = GaussianK * GaussianK

	AUKm          = 149597870.7
	EarthRadiusKm = 6371.0
	secondsPerDay = 86400.0
	daysPerYear   = 365.25
)

// Config tunes the propagator.
type Config struct {
	Tolerance       float64 `toml:"tolerance"`
	MaxIterations   int     `toml:"max_iterations"`
	CloseApproachKm float64 `toml:"close_approach_km"`
	MaxPoints       int     `toml:"max_points"`
}

// DefaultConfig returns the reference solver settings.
func DefaultConfig() Config {
	return Config{
		Tolerance:       1e-8,
		MaxIterations:   100,
		CloseApproachKm: 100000,
		MaxPoints:       5000,
	}
}

// Validate checks the solver settings.
func (c Config) Validate() error {
	switch {
	case !(c.Tolerance > 0):
		return fmt.Errorf("orbit: tolerance must be > 0")
	case c.MaxIterations < 1:
		return fmt.Errorf("orbit: max_iterations must be >= 1")
	case !(c.CloseApproachKm > 0):
		return fmt.Errorf("orbit: close_approach_km must be > 0")
	case c.MaxPoints < 1:
		return fmt.Errorf("orbit: max_points must be >= 1")
	}
	return nil
}

// Propagator turns elements into state vectors. It is safe for concurrent use.
type Propagator struct {
	cfg     Config
	observe func(iterations int)
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithIterationObserver reports the Kepler iteration count of every solve.
func WithIterationObserver(fn func(iterations int)) Option {
	return func(p *Propagator) { p.observe = fn }
}

// NewPropagator returns a Propagator using cfg.
func NewPropagator(cfg Config, opts ...Option) *Propagator {
	p := &Propagator{cfg: cfg}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Config returns the solver settings in use.
func (p *Propagator) Config() Config { return p.cfg }

// PeriodDays returns the orbital period from Kepler's third law.
func PeriodDays(a float64) float64 {
	return 2 * math.Pi * math.Sqrt(a*a*a/MuSun)
}

// Propagate returns the heliocentric ecliptic state of the body at t.
func (p *Propagator) Propagate(el domain.OrbitalElements, t time.Time) (domain.StateVector, error) {
	if err := el.Validate(); err != nil {
		return domain.StateVector{}, fmt.Errorf("orbit: propagate: %w", err)
	}
	el = el.Normalized()
	jd := julian.TimeToJD(t)

	n := 360 / PeriodDays(el.SemiMajorAxisAU)
	m := unit.AngleFromDeg(domain.NormalizeDeg(el.MeanAnomalyDeg + n*(jd-el.EpochJD)))

	ecc, iters, err := SolveKepler(m.Rad(), el.Eccentricity, p.cfg.Tolerance, p.cfg.MaxIterations)
	if p.observe != nil {
		p.observe(iters)
	}
	if err != nil {
		return domain.StateVector{}, fmt.Errorf("orbit: propagate: %w", err)
	}

	e := el.Eccentricity
	nu := TrueAnomaly(ecc, e)
	a := el.SemiMajorAxisAU
	r := a * (1 - e*math.Cos(ecc))

	// Perifocal frame, AU and AU/day.
	semiLatus := a * (1 - e*e)
	vScale := math.Sqrt(MuSun / semiLatus)
	pos := mat.NewVecDense(3, []float64{r * math.Cos(nu), r * math.Sin(nu), 0})
	vel := mat.NewVecDense(3, []float64{-vScale * math.Sin(nu), vScale * (e + math.Cos(nu)), 0})

	q := perifocalToEcliptic(
		unit.AngleFromDeg(el.NodeDeg),
		unit.AngleFromDeg(el.InclinationDeg),
		unit.AngleFromDeg(el.PerihelionDeg),
	)
	var rOut, vOut mat.VecDense
	rOut.MulVec(q, pos)
	vOut.MulVec(q, vel)

	const kmPerSecond = AUKm / secondsPerDay
	return domain.StateVector{
		Position: domain.Vec3{rOut.AtVec(0) * AUKm, rOut.AtVec(1) * AUKm, rOut.AtVec(2) * AUKm},
		Velocity: domain.Vec3{vOut.AtVec(0) * kmPerSecond, vOut.AtVec(1) * kmPerSecond, vOut.AtVec(2) * kmPerSecond},
		Frame:    domain.FrameHeliocentric,
		JD:       jd,
	}, nil
}

// perifocalToEcliptic builds Rz(node) * Rx(inc) * Rz(peri).
func perifocalToEcliptic(node, inc, peri unit.Angle) *mat.Dense {
	var tmp, q mat.Dense
	tmp.Mul(rotZ(node), rotX(inc))
	q.Mul(&tmp, rotZ(peri))
	return &q
}

func rotZ(a unit.Angle) *mat.Dense {
	s, c := math.Sincos(a.Rad())
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func rotX(a unit.Angle) *mat.Dense {
	s, c := math.Sincos(a.Rad())
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}
