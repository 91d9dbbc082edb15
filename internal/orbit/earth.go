package orbit

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// Circular Earth orbit.
const (
	earthLongitudeJ2000 = 100.464
	earthMeanMotionDeg  = 0.9856076686
	EarthSpeedKmS       = 29.78
	EscapeVelocityKmS   = 11.19
)

// EarthState returns the heliocentric state of a circular 1 AU Earth.
func EarthState(t time.Time) domain.StateVector {
	jd := julian.TimeToJD(t)
	l := unit.AngleFromDeg(domain.NormalizeDeg(earthLongitudeJ2000 + earthMeanMotionDeg*(jd-domain.J2000JD)))
	s, c := math.Sincos(l.Rad())
	return domain.StateVector{
		Position: domain.Vec3{AUKm * c, AUKm * s, 0},
		Velocity: domain.Vec3{-EarthSpeedKmS * s, EarthSpeedKmS * c, 0},
		Frame:    domain.FrameHeliocentric,
		JD:       jd,
	}
}

// Geocentric returns ast relative to earth.
func Geocentric(ast, earth domain.StateVector) domain.StateVector {
	return domain.StateVector{
		Position: ast.Position.Sub(earth.Position),
		Velocity: ast.Velocity.Sub(earth.Velocity),
		Frame:    domain.FrameGeocentric,
		JD:       ast.JD,
	}
}
