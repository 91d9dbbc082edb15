package domain

import "math"

// DefaultDensityKgM3 is the bulk density assumed for a stony impactor.
const DefaultDensityKgM3 = 2600.0

// DefaultAngleDeg is the statistically most likely entry angle.
const DefaultAngleDeg = 45.0

// ImpactParameters fully specifies one physics run.
type ImpactParameters struct {
	DiameterM   float64 `json:"diameter_m"`
	VelocityKmS float64 `json:"velocity_km_s"`
	DensityKgM3 float64 `json:"density_kg_m3"`
	AngleDeg    float64 `json:"angle_degrees"`
	ImpactLat   float64 `json:"impact_lat"`
	ImpactLon   float64 `json:"impact_lon"`
}

// Validate rejects non-finite, zero or out-of-range inputs. Angles are
// measured from the horizontal and must lie in (0, 90].
func (p ImpactParameters) Validate() error {
	checks := []struct {
		field string
		value float64
	}{
		{"diameter_m", p.DiameterM},
		{"velocity_km_s", p.VelocityKmS},
		{"density_kg_m3", p.DensityKgM3},
		{"angle_degrees", p.AngleDeg},
		{"impact_lat", p.ImpactLat},
		{"impact_lon", p.ImpactLon},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return Validation(c.field, c.value, "must be a finite number")
		}
	}
	if p.DiameterM <= 0 {
		return Validation("diameter_m", p.DiameterM, "must be > 0")
	}
	if p.VelocityKmS <= 0 {
		return Validation("velocity_km_s", p.VelocityKmS, "must be > 0")
	}
	if p.DensityKgM3 <= 0 {
		return Validation("density_kg_m3", p.DensityKgM3, "must be > 0")
	}
	if p.AngleDeg <= 0 || p.AngleDeg > 90 {
		return Validation("angle_degrees", p.AngleDeg, "must be in (0, 90]")
	}
	return ValidateCoordinates(p.ImpactLat, p.ImpactLon)
}

// Location returns the impact coordinates.
func (p ImpactParameters) Location() Location {
	return Location{Lat: p.ImpactLat, Lon: p.ImpactLon}
}

// WithLocation returns a copy of p that impacts at loc.
func (p ImpactParameters) WithLocation(loc Location) ImpactParameters {
	p.ImpactLat = loc.Lat
	p.ImpactLon = loc.Lon
	return p
}

// ValidateCoordinates checks a latitude/longitude pair in degrees.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Validation("impact_lat", lat, "must be in [-90, 90]")
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return Validation("impact_lon", lon, "must be in [-180, 180]")
	}
	return nil
}

// Location is a point on the Earth's surface in degrees.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
	// Approximate marks coordinates derived from an orbit rather than given.
	Approximate bool `json:"approximate,omitempty"`
}

// BlastZones holds the overpressure ring radii.
type BlastZones struct {
	SevereRadiusKm float64 `json:"severe_20psi_radius_km"`
	HeavyRadiusKm  float64 `json:"heavy_5psi_radius_km"`
	LightRadiusKm  float64 `json:"light_1psi_radius_km"`
}

// ImpactEffects is derived purely from ImpactParameters.
type ImpactEffects struct {
	MassKg           float64    `json:"mass_kg"`
	KineticEnergyJ   float64    `json:"kinetic_energy_joules"`
	KineticEnergyMt  float64    `json:"kinetic_energy_mt"`
	CraterDiameterM  float64    `json:"crater_diameter_m"`
	CraterDepthM     float64    `json:"crater_depth_m"`
	CraterRimHeightM float64    `json:"crater_rim_height_m"`
	CraterVolumeM3   float64    `json:"crater_volume_m3"`
	SeismicMagnitude float64    `json:"seismic_magnitude"`
	SeismicRadiusKm  float64    `json:"seismic_radius_km"`
	AirBlastRadiusKm float64    `json:"air_blast_radius_km"`
	ThermalRadiusKm  float64    `json:"thermal_radius_km"`
	BlastZones       BlastZones `json:"blast_zones"`
}
