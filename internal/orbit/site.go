package orbit

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/geo"
)

// GMST returns Greenwich Mean Sidereal Time for t (IAU-82, Vallado eq. 3-47).
func GMST(t time.Time) unit.Angle {
	tUT1 := (julian.TimeToJD(t.UTC()) - domain.J2000JD) / 36525.0

	sec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	sec = math.Mod(sec, secondsPerDay)
	if sec < 0 {
		sec += secondsPerDay
	}
	return unit.Angle(sec / secondsPerDay * 2 * math.Pi)
}

// ImpactSite maps the geocentric direction of ast to a sub-body point on the
// rotating Earth. The ecliptic vector is treated as if it were equatorial,
// so the result is deterministic but not a ground track.
func ImpactSite(ast, earth domain.StateVector, t time.Time) domain.Location {
	d := ast.Position.Sub(earth.Position)
	norm := d.Norm()
	lat := 0.0
	if norm > 0 {
		lat = unit.Angle(math.Asin(d[2] / norm)).Deg()
	}
	lon := unit.Angle(math.Atan2(d[1], d[0])).Deg() - GMST(t).Deg()
	return domain.Location{
		Lat:         geo.ClampLat(lat),
		Lon:         geo.WrapLon(lon),
		Approximate: true,
	}
}
