package domain

import (
	"math"
	"time"
)

// Vec3 is a Cartesian vector.
type Vec3 [3]float64

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Reference frames of a StateVector.
const (
	FrameHeliocentric = "heliocentric_ecliptic"
	FrameGeocentric   = "geocentric_ecliptic"
)

// OrbitalElements are classical Keplerian elements. Angles are degrees,
// the semi-major axis is AU and the epoch is a Julian Day.
type OrbitalElements struct {
	SemiMajorAxisAU float64 `json:"a"`
	Eccentricity    float64 `json:"e"`
	InclinationDeg  float64 `json:"i"`
	NodeDeg         float64 `json:"om"`
	PerihelionDeg   float64 `json:"w"`
	MeanAnomalyDeg  float64 `json:"ma"`
	EpochJD         float64 `json:"epoch"`
}

// J2000JD is the Julian Day of the J2000.0 epoch.
const J2000JD = 2451545.0

// Normalized returns a copy with every angle reduced to [0, 360).
func (o OrbitalElements) Normalized() OrbitalElements {
	o.InclinationDeg = NormalizeDeg(o.InclinationDeg)
	o.NodeDeg = NormalizeDeg(o.NodeDeg)
	o.PerihelionDeg = NormalizeDeg(o.PerihelionDeg)
	o.MeanAnomalyDeg = NormalizeDeg(o.MeanAnomalyDeg)
	return o
}

// Validate rejects hyperbolic, parabolic and degenerate orbits.
func (o OrbitalElements) Validate() error {
	if math.IsNaN(o.SemiMajorAxisAU) || o.SemiMajorAxisAU <= 0 {
		return Validation("a", o.SemiMajorAxisAU, "semi-major axis must be > 0")
	}
	if math.IsNaN(o.Eccentricity) || o.Eccentricity < 0 || o.Eccentricity >= 1 {
		return Validation("e", o.Eccentricity, "eccentricity must be in [0, 1)")
	}
	for _, a := range []struct {
		field string
		v     float64
	}{
		{"i", o.InclinationDeg}, {"om", o.NodeDeg}, {"w", o.PerihelionDeg},
		{"ma", o.MeanAnomalyDeg}, {"epoch", o.EpochJD},
	} {
		if math.IsNaN(a.v) || math.IsInf(a.v, 0) {
			return Validation(a.field, a.v, "must be a finite number")
		}
	}
	return nil
}

// NormalizeDeg reduces an angle to [0, 360).
func NormalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// StateVector is a derived position (km) and velocity (km/s).
type StateVector struct {
	Position Vec3    `json:"position_km"`
	Velocity Vec3    `json:"velocity_km_s"`
	Frame    string  `json:"frame"`
	JD       float64 `json:"jd"`
}

// PhysicalProperties describe the body itself.
type PhysicalProperties struct {
	DiameterKm        float64 `json:"diameter_km"`
	AbsoluteMagnitude float64 `json:"absolute_magnitude"`
	Albedo            float64 `json:"albedo"`
}

// SmallBody is an asteroid or comet as supplied by an element source.
type SmallBody struct {
	Designation string             `json:"designation"`
	Name        string             `json:"name"`
	Elements    OrbitalElements    `json:"orbital_elements"`
	Physical    PhysicalProperties `json:"physical_properties"`
	NEO         bool               `json:"neo"`
	PHA         bool               `json:"pha"`
	Source      DataSource         `json:"source"`
	FetchedAt   time.Time          `json:"fetched_at"`
}

// TrajectoryPoint is one sample of a propagated orbit.
type TrajectoryPoint struct {
	Time            time.Time `json:"time"`
	Position        Vec3      `json:"position_km"`
	EarthDistanceKm float64   `json:"earth_distance_km"`
}

// CloseApproach is the minimum Earth distance found over a trajectory.
type CloseApproach struct {
	Time              time.Time `json:"time"`
	DistanceKm        float64   `json:"distance_km"`
	RelativeSpeedKmS  float64   `json:"relative_speed_km_s"`
	ImpactVelocityKmS float64   `json:"impact_velocity_km_s"`
	PotentialImpact   bool      `json:"potential_impact"`
	Site              Location  `json:"site"`
}

// Trajectory is a sampled orbit plus its closest approach.
type Trajectory struct {
	Points   []TrajectoryPoint `json:"points"`
	Approach CloseApproach     `json:"closest_approach"`
}

// OrbitRisk summarizes an orbit's Earth-crossing geometry.
type OrbitRisk struct {
	PerihelionAU     float64 `json:"perihelion_au"`
	AphelionAU       float64 `json:"aphelion_au"`
	EarthCrossing    bool    `json:"earth_crossing"`
	MinimumDistAU    float64 `json:"minimum_distance_au"`
	PeriodYears      float64 `json:"period_years"`
	DiameterKm       float64 `json:"diameter_km"`
	RiskLabel        string  `json:"risk_label"`
	PotentialEffects string  `json:"potential_effects"`
}
