// Package service composes the physics core with the external sources,
// persistence and event plumbing into the operations served over HTTP and
// run in batch mode.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alanyoungcy/impactsim/internal/casualty"
	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/metrics"
	"github.com/alanyoungcy/impactsim/internal/notify"
	"github.com/alanyoungcy/impactsim/internal/observability"
	"github.com/alanyoungcy/impactsim/internal/orbit"
	"github.com/alanyoungcy/impactsim/internal/physics"
	"github.com/alanyoungcy/impactsim/internal/scenario"
	"github.com/alanyoungcy/impactsim/internal/tsunami"
)

// Report kinds, used as the metrics label.
const (
	KindAnalyze  = "analyze"
	KindOrbit    = "orbit"
	KindScenario = "scenario"
)

// DefaultDiameterM is used for orbit analyses when neither the request nor
// the element source supplies a diameter.
const DefaultDiameterM = 1000.0

// Notifier delivers operator alerts.
type Notifier interface {
	Notify(ctx context.Context, a notify.Alert) error
}

// ImpactDeps groups the collaborators of an ImpactService. The core engines
// and Logger are required; everything else may be nil.
type ImpactDeps struct {
	Physics    *physics.Engine
	Casualty   *casualty.Estimator
	Tsunami    *tsunami.Assessor
	Propagator *orbit.Propagator
	Catalog    *scenario.Catalog

	Elevation  domain.ElevationSource
	Population domain.PopulationSource
	Elements   domain.ElementSource

	Reports  domain.ReportStore
	Audit    domain.AuditStore
	Bus      domain.SignalBus
	Notifier Notifier
	Metrics  *metrics.Collector
	Logger   *slog.Logger

	// AlertLevel is the lowest tsunami risk that triggers a notification.
	// Zero selects domain.RiskHigh.
	AlertLevel domain.RiskLevel
	Now        func() time.Time
	NewID      func() string
}

// ImpactService produces impact reports.
type ImpactService struct {
	d ImpactDeps
}

// NewImpactService creates an ImpactService.
func NewImpactService(d ImpactDeps) *ImpactService {
	if d.AlertLevel == domain.RiskMinimal {
		d.AlertLevel = domain.RiskHigh
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	d.Logger = d.Logger.With(slog.String("component", "impact_service"))
	return &ImpactService{d: d}
}

// Analyze runs the full pipeline for explicit parameters.
func (s *ImpactService) Analyze(ctx context.Context, p domain.ImpactParameters) (domain.Report, error) {
	r, err := s.build(ctx, p, p.Location())
	if err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: analyze: %w", err)
	}
	if err := s.record(ctx, KindAnalyze, &r); err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: analyze: %w", err)
	}
	return r, nil
}

// OrbitRequest asks for an impact derived from an orbit. Exactly one of
// Designation and Elements should be set; Elements wins when both are.
type OrbitRequest struct {
	Designation string                  `json:"designation,omitempty"`
	Elements    *domain.OrbitalElements `json:"orbital_elements,omitempty"`
	TargetTime  time.Time               `json:"target_time"`
	// Zero values select the body's diameter (or 1 km), the derived entry
	// velocity and the default density and angle.
	DiameterM   float64 `json:"diameter_m,omitempty"`
	VelocityKmS float64 `json:"velocity_km_s,omitempty"`
	DensityKgM3 float64 `json:"density_kg_m3,omitempty"`
	AngleDeg    float64 `json:"angle_degrees,omitempty"`
}

// AnalyzeOrbit propagates the orbit to the target time, maps the
// geocentric direction to an approximate site and analyzes an impact there.
func (s *ImpactService) AnalyzeOrbit(ctx context.Context, req OrbitRequest) (domain.Report, error) {
	oc, diameterKm, err := s.resolveOrbit(ctx, req)
	if err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: analyze orbit: %w", err)
	}

	geoState := orbit.Geocentric(oc.Asteroid, oc.Earth)
	site := orbit.ImpactSite(oc.Asteroid, oc.Earth, req.TargetTime)
	if oc.Designation != "" {
		site.Name = oc.Designation
	}

	p := domain.ImpactParameters{
		DiameterM:   req.DiameterM,
		VelocityKmS: req.VelocityKmS,
		DensityKgM3: req.DensityKgM3,
		AngleDeg:    req.AngleDeg,
	}.WithLocation(site)
	if p.DiameterM == 0 {
		p.DiameterM = DefaultDiameterM
		if diameterKm > 0 {
			p.DiameterM = diameterKm * 1000
		}
	}
	if p.VelocityKmS == 0 {
		p.VelocityKmS = orbit.ImpactVelocity(geoState.Velocity.Norm())
	}
	if p.DensityKgM3 == 0 {
		p.DensityKgM3 = domain.DefaultDensityKgM3
	}
	if p.AngleDeg == 0 {
		p.AngleDeg = domain.DefaultAngleDeg
	}

	r, err := s.build(ctx, p, site)
	if err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: analyze orbit: %w", err)
	}
	r.Orbit = &oc
	if err := s.record(ctx, KindOrbit, &r); err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: analyze orbit: %w", err)
	}
	return r, nil
}

func (s *ImpactService) resolveOrbit(ctx context.Context, req OrbitRequest) (domain.OrbitContext, float64, error) {
	if req.TargetTime.IsZero() {
		return domain.OrbitContext{}, 0, domain.Validation("target_time", "", "must be set")
	}
	oc := domain.OrbitContext{TargetTime: req.TargetTime.UTC(), Source: domain.SourceLive}
	var diameterKm float64

	switch {
	case req.Elements != nil:
		oc.Elements = *req.Elements
	case req.Designation != "":
		body, err := s.LookupBody(ctx, req.Designation)
		if err != nil {
			return domain.OrbitContext{}, 0, err
		}
		oc.Designation = body.Designation
		oc.Elements = body.Elements
		oc.Source = body.Source
		diameterKm = body.Physical.DiameterKm
	default:
		return domain.OrbitContext{}, 0, domain.Validation("orbital_elements", nil, "either designation or orbital_elements is required")
	}

	ast, err := s.d.Propagator.Propagate(oc.Elements, req.TargetTime)
	if err != nil {
		return domain.OrbitContext{}, 0, err
	}
	oc.Asteroid = ast
	oc.Earth = orbit.EarthState(req.TargetTime)
	oc.DistanceKm = ast.Position.Sub(oc.Earth.Position).Norm()
	return oc, diameterKm, nil
}

// LookupBody resolves a designation through the element source.
func (s *ImpactService) LookupBody(ctx context.Context, designation string) (domain.SmallBody, error) {
	if s.d.Elements == nil {
		return domain.SmallBody{}, domain.Unavailable("sbdb", fmt.Errorf("no element source configured"))
	}
	return s.d.Elements.Lookup(ctx, designation)
}

// RunScenario analyzes a catalog preset, optionally at another location.
func (s *ImpactService) RunScenario(ctx context.Context, id string, at *domain.Location) (domain.Report, error) {
	def, err := s.d.Catalog.Get(id)
	if err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: run scenario: %w", err)
	}
	p, loc := def.Parameters, def.Location
	if at != nil {
		if err := domain.ValidateCoordinates(at.Lat, at.Lon); err != nil {
			return domain.Report{}, fmt.Errorf("impact_service: run scenario: %w", err)
		}
		loc = *at
		p = p.WithLocation(loc)
	}

	r, err := s.build(ctx, p, loc)
	if err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: run scenario %s: %w", id, err)
	}
	r.ScenarioID = def.ID
	if err := s.record(ctx, KindScenario, &r); err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: run scenario %s: %w", id, err)
	}
	return r, nil
}

// ComparisonEntry is one scenario's headline effects.
type ComparisonEntry struct {
	ScenarioID       string  `json:"scenario_id"`
	Name             string  `json:"name"`
	DiameterM        float64 `json:"diameter_m"`
	VelocityKmS      float64 `json:"velocity_km_s"`
	KineticEnergyMt  float64 `json:"kinetic_energy_mt"`
	CraterDiameterM  float64 `json:"crater_diameter_m"`
	SeismicMagnitude float64 `json:"seismic_magnitude"`
	AirBlastRadiusKm float64 `json:"air_blast_radius_km"`
	ThermalRadiusKm  float64 `json:"thermal_radius_km"`
}

// Comparison lists scenarios by ascending energy.
type Comparison struct {
	Scenarios []ComparisonEntry `json:"scenarios"`
	Unknown   []string          `json:"unknown,omitempty"`
}

// CompareScenarios computes the physics of each known preset. Unknown ids
// are reported back rather than failing the comparison, but at least two
// ids must be given.
func (s *ImpactService) CompareScenarios(ctx context.Context, ids []string) (Comparison, error) {
	if len(ids) < 2 {
		return Comparison{}, domain.Validation("scenario_ids", len(ids), "at least 2 scenarios are required")
	}
	out := Comparison{Scenarios: make([]ComparisonEntry, 0, len(ids))}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		def, err := s.d.Catalog.Get(id)
		if err != nil {
			out.Unknown = append(out.Unknown, id)
			continue
		}
		fx, err := s.d.Physics.ComputeEffects(def.Parameters)
		if err != nil {
			return Comparison{}, fmt.Errorf("impact_service: compare %s: %w", id, err)
		}
		out.Scenarios = append(out.Scenarios, ComparisonEntry{
			ScenarioID:       def.ID,
			Name:             def.Name,
			DiameterM:        def.Parameters.DiameterM,
			VelocityKmS:      def.Parameters.VelocityKmS,
			KineticEnergyMt:  fx.KineticEnergyMt,
			CraterDiameterM:  fx.CraterDiameterM,
			SeismicMagnitude: fx.SeismicMagnitude,
			AirBlastRadiusKm: fx.AirBlastRadiusKm,
			ThermalRadiusKm:  fx.ThermalRadiusKm,
		})
	}
	sort.SliceStable(out.Scenarios, func(i, j int) bool {
		return out.Scenarios[i].KineticEnergyMt < out.Scenarios[j].KineticEnergyMt
	})
	if len(out.Unknown) > 0 {
		s.d.Logger.InfoContext(ctx, "compare skipped unknown scenarios", slog.Any("ids", out.Unknown))
	}
	return out, nil
}

// GetReport loads a stored report.
func (s *ImpactService) GetReport(ctx context.Context, id string) (domain.Report, error) {
	if s.d.Reports == nil {
		return domain.Report{}, domain.Unavailable("reports", fmt.Errorf("no report store configured"))
	}
	r, err := s.d.Reports.GetByID(ctx, id)
	if err != nil {
		return domain.Report{}, fmt.Errorf("impact_service: get report %q: %w", id, err)
	}
	return r, nil
}

// ReportPage is one page of stored report summaries.
type ReportPage struct {
	Reports []domain.ReportSummary `json:"reports"`
	Total   int64                  `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// ListReports returns stored reports, newest first.
func (s *ImpactService) ListReports(ctx context.Context, opts domain.ListOpts) (ReportPage, error) {
	if s.d.Reports == nil {
		return ReportPage{}, domain.Unavailable("reports", fmt.Errorf("no report store configured"))
	}
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	list, err := s.d.Reports.List(ctx, opts)
	if err != nil {
		return ReportPage{}, fmt.Errorf("impact_service: list reports: %w", err)
	}
	total, err := s.d.Reports.Count(ctx)
	if err != nil {
		return ReportPage{}, fmt.Errorf("impact_service: count reports: %w", err)
	}
	return ReportPage{Reports: list, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

// build computes every section of a report. Lookup failures degrade to
// sourced defaults; only invalid parameters fail.
func (s *ImpactService) build(ctx context.Context, p domain.ImpactParameters, loc domain.Location) (_ domain.Report, err error) {
	ctx, span := observability.Start(ctx, "impact.analyze",
		attribute.Float64("diameter_m", p.DiameterM),
		attribute.Float64("lat", p.ImpactLat),
		attribute.Float64("lon", p.ImpactLon))
	defer func() { observability.End(span, err) }()

	fx, err := s.d.Physics.ComputeEffects(p)
	if err != nil {
		return domain.Report{}, err
	}
	cas := s.d.Casualty.Estimate(ctx, fx, p.ImpactLat, p.ImpactLon, s.d.Population)
	if cas.Density.IsDefault() {
		s.d.Metrics.Fallback("population")
	}
	ts, err := s.d.Tsunami.Assess(ctx, p, s.d.Elevation)
	if err != nil {
		return domain.Report{}, err
	}
	if ts.ImpactElevation.IsDefault() {
		s.d.Metrics.Fallback("elevation")
	}

	r := domain.Report{
		ID:               s.d.NewID(),
		CreatedAt:        s.d.Now().UTC(),
		ImpactParameters: p,
		Location:         loc,
		ImpactEffects:    fx,
		Casualties:       cas,
	}
	// Dry-land impacts with complete data carry no tsunami section; an
	// incomplete assessment is kept so the land assumption stays visible.
	if ts.IsWaterImpact || ts.DataQuality == domain.QualityIncomplete {
		r.TsunamiAssessment = &ts
	}
	return r, nil
}

// record persists r and fans it out. Only a failed save is an error; bus,
// audit and notification failures are logged.
func (s *ImpactService) record(ctx context.Context, kind string, r *domain.Report) error {
	if s.d.Reports != nil {
		if err := s.d.Reports.Save(ctx, *r); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}
	s.d.Metrics.ReportCreated(kind)

	if s.d.Bus != nil {
		payload, err := domain.NewEvent(domain.EventReportCreated, r.CreatedAt, r.Summary())
		if err == nil {
			err = s.d.Bus.Publish(ctx, domain.ChannelReports, payload)
		}
		if err == nil {
			_, err = s.d.Bus.Append(ctx, domain.StreamReports, payload)
		}
		if err != nil {
			s.d.Logger.WarnContext(ctx, "publish report_created failed",
				slog.String("report_id", r.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.d.Audit != nil {
		detail := map[string]any{"kind": kind, "energy_mt": r.ImpactEffects.KineticEnergyMt}
		if r.ScenarioID != "" {
			detail["scenario_id"] = r.ScenarioID
		}
		entry := domain.AuditEntry{Event: domain.AuditReportCreated, Subject: r.ID, Detail: detail}
		if err := s.d.Audit.Log(ctx, entry); err != nil {
			s.d.Logger.WarnContext(ctx, "audit log failed",
				slog.String("report_id", r.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if ts := r.TsunamiAssessment; ts != nil && ts.RiskLevel >= s.d.AlertLevel && s.d.Notifier != nil {
		alert, _ := notify.TsunamiAlert(*r)
		if err := s.d.Notifier.Notify(ctx, alert); err != nil {
			s.d.Logger.WarnContext(ctx, "tsunami alert failed",
				slog.String("report_id", r.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.d.Logger.InfoContext(ctx, "report created",
		slog.String("report_id", r.ID),
		slog.String("kind", kind),
		slog.Float64("energy_mt", r.ImpactEffects.KineticEnergyMt),
	)
	return nil
}
