package domain

import "time"

// OrbitContext records how an orbit-derived impact site was obtained.
type OrbitContext struct {
	Designation string          `json:"designation,omitempty"`
	Elements    OrbitalElements `json:"orbital_elements"`
	TargetTime  time.Time       `json:"target_time"`
	Asteroid    StateVector     `json:"asteroid_state"`
	Earth       StateVector     `json:"earth_state"`
	DistanceKm  float64         `json:"earth_distance_km"`
	Source      DataSource      `json:"elements_source"`
}

// Report is the JSON-serializable output of one analysis.
type Report struct {
	ID                string             `json:"id"`
	CreatedAt         time.Time          `json:"created_at"`
	ScenarioID        string             `json:"scenario_id,omitempty"`
	ImpactParameters  ImpactParameters   `json:"impact_parameters"`
	Location          Location           `json:"location"`
	ImpactEffects     ImpactEffects      `json:"impact_effects"`
	Casualties        CasualtyEstimate   `json:"casualties"`
	TsunamiAssessment *TsunamiAssessment `json:"tsunami_assessment,omitempty"`
	Orbit             *OrbitContext      `json:"orbit,omitempty"`
}

// ReportSummary is the list view of a stored report.
type ReportSummary struct {
	ID              string     `json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	ScenarioID      string     `json:"scenario_id,omitempty"`
	DiameterM       float64    `json:"diameter_m"`
	KineticEnergyMt float64    `json:"kinetic_energy_mt"`
	EstimatedDeaths int64      `json:"estimated_deaths"`
	RiskLevel       *RiskLevel `json:"risk_level,omitempty"`
}

// Summary derives the list view of r.
func (r Report) Summary() ReportSummary {
	s := ReportSummary{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		ScenarioID:      r.ScenarioID,
		DiameterM:       r.ImpactParameters.DiameterM,
		KineticEnergyMt: r.ImpactEffects.KineticEnergyMt,
		EstimatedDeaths: r.Casualties.EstimatedDeaths,
	}
	if r.TsunamiAssessment != nil {
		lvl := r.TsunamiAssessment.RiskLevel
		s.RiskLevel = &lvl
	}
	return s
}
