package domain

import "time"

// Parameters that a study may vary.
const (
	ParamDiameter = "diameter_m"
	ParamVelocity = "velocity_km_s"
	ParamDensity  = "density_kg_m3"
	ParamAngle    = "angle_degrees"
)

// StudyAxis is one varied parameter and the values to test, in order.
type StudyAxis struct {
	Parameter string    `json:"parameter"`
	Values    []float64 `json:"values"`
}

// StudyValue is one coordinate of a study cell.
type StudyValue struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
}

// StudyCell is one combination of the sweep. Index is its position in the
// row-major enumeration of the axes.
type StudyCell struct {
	Index      int              `json:"index"`
	Inputs     []StudyValue     `json:"inputs"`
	Parameters ImpactParameters `json:"parameters"`
	Effects    *ImpactEffects   `json:"effects,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Range is a min/max pair.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// StudySummary aggregates the successful cells of a study.
type StudySummary struct {
	Succeeded        int   `json:"succeeded"`
	Failed           int   `json:"failed"`
	EnergyMt         Range `json:"energy_mt"`
	CraterDiameterM  Range `json:"crater_diameter_m"`
	SeismicMagnitude Range `json:"seismic_magnitude"`
	AirBlastRadiusKm Range `json:"air_blast_radius_km"`
}

// StudyResult is a completed parameter study.
type StudyResult struct {
	ID          string           `json:"id"`
	Base        ImpactParameters `json:"base_parameters"`
	Axes        []StudyAxis      `json:"axes"`
	Cells       []StudyCell      `json:"cells"`
	Summary     StudySummary     `json:"summary"`
	CreatedAt   time.Time        `json:"created_at"`
	DurationMs  int64            `json:"duration_ms"`
	ArchivePath string           `json:"archive_path,omitempty"`
}

// StudyProgress is published while a study runs.
type StudyProgress struct {
	StudyID   string `json:"study_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Done      bool   `json:"done"`
}
