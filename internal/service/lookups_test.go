package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

func TestQuickTsunami(t *testing.T) {
	f := newImpactFixture(t, constElevation(-4000))
	q, err := f.svc.QuickTsunami(context.Background(), 0, -30, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if !q.IsWaterImpact || q.RiskLevel == domain.RiskMinimal || q.Elevation.IsDefault() {
		t.Errorf("quick = %+v", q)
	}

	if _, err := f.svc.QuickTsunami(context.Background(), 95, 0, 1000); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad latitude err = %v", err)
	}
}

func TestQuickTsunamiCountsFallback(t *testing.T) {
	down := elevationFunc(func(float64, float64) (float64, error) {
		return 0, domain.Unavailable("open-elevation", errors.New("503"))
	})
	f := newImpactFixture(t, down)
	q, err := f.svc.QuickTsunami(context.Background(), 0, -30, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if q.IsWaterImpact || !q.Elevation.IsDefault() {
		t.Errorf("quick = %+v", q)
	}
	if got := testutil.ToFloat64(f.metrics.LookupFallbacks.WithLabelValues("elevation")); got != 1 {
		t.Errorf("elevation fallbacks = %v", got)
	}
}

func TestAssessTsunamiOcean(t *testing.T) {
	f := newImpactFixture(t, constElevation(-4000))
	a, err := f.svc.AssessTsunami(context.Background(), params(1000))
	if err != nil {
		t.Fatal(err)
	}
	if !a.IsWaterImpact || a.RiskLevel != domain.RiskExtreme || a.DataQuality != domain.QualityComplete {
		t.Errorf("assessment = %+v", a)
	}
	if len(f.reports.saved) != 0 {
		t.Error("a standalone assessment must not store a report")
	}
}

func TestRiskLevelDocs(t *testing.T) {
	f := newImpactFixture(t, constElevation(0))
	all := f.svc.RiskLevels()
	if len(all) != len(domain.RiskLevels()) {
		t.Fatalf("got %d levels", len(all))
	}
	for i, info := range all {
		if info.Level != domain.RiskLevel(i) || info.Description == "" {
			t.Errorf("level %d = %+v", i, info)
		}
	}
	if _, err := f.svc.RiskLevel(domain.RiskLevel(42)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown level err = %v", err)
	}
}

func apophis() domain.SmallBody {
	return domain.SmallBody{
		Designation: "99942",
		Name:        "Apophis",
		Elements: domain.OrbitalElements{
			SemiMajorAxisAU: 0.9224, Eccentricity: 0.1914, InclinationDeg: 3.34,
			NodeDeg: 204.04, PerihelionDeg: 126.65, MeanAnomalyDeg: 142.0, EpochJD: 2461000.5,
		},
		Physical: domain.PhysicalProperties{DiameterKm: 0.34},
		Source:   domain.SourceLive,
	}
}

func TestDescribeBody(t *testing.T) {
	f := newImpactFixture(t, constElevation(0))
	f.elements.bodies["99942"] = apophis()

	sum, err := f.svc.DescribeBody(context.Background(), "99942")
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Risk.EarthCrossing || sum.Risk.DiameterKm != 0.34 {
		t.Errorf("risk = %+v", sum.Risk)
	}
	if sum.Risk.PerihelionAU >= 1 || sum.Risk.AphelionAU <= 1 {
		t.Errorf("perihelion/aphelion = %v/%v", sum.Risk.PerihelionAU, sum.Risk.AphelionAU)
	}

	if _, err := f.svc.DescribeBody(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown designation err = %v", err)
	}
}

func TestTrajectory(t *testing.T) {
	f := newImpactFixture(t, constElevation(0))
	f.elements.bodies["99942"] = apophis()
	start := time.Date(2029, 4, 1, 0, 0, 0, 0, time.UTC)

	res, err := f.svc.Trajectory(context.Background(), TrajectoryRequest{
		Designation: "99942", Start: start, Days: 30, Points: 60,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Designation != "99942" || len(res.Trajectory.Points) != 60 {
		t.Fatalf("designation=%q points=%d", res.Designation, len(res.Trajectory.Points))
	}
	if !res.Trajectory.Points[0].Time.Equal(start) {
		t.Errorf("first point at %v, want %v", res.Trajectory.Points[0].Time, start)
	}
	ca := res.Trajectory.Approach
	for _, p := range res.Trajectory.Points {
		if p.EarthDistanceKm < ca.DistanceKm {
			t.Fatalf("point at %v is closer than the reported approach", p.Time)
		}
	}
	if res.Risk.DiameterKm != 0.34 {
		t.Errorf("diameter = %v", res.Risk.DiameterKm)
	}
}

func TestTrajectoryDefaults(t *testing.T) {
	f := newImpactFixture(t, constElevation(0))
	el := apophis().Elements

	res, err := f.svc.Trajectory(context.Background(), TrajectoryRequest{Elements: &el, Days: 10, Points: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Trajectory.Points[0].Time.Equal(fixedNow()) {
		t.Errorf("start = %v, want now", res.Trajectory.Points[0].Time)
	}
	if res.Risk.DiameterKm != DefaultDiameterM/1000 {
		t.Errorf("default diameter = %v", res.Risk.DiameterKm)
	}
	if f.elements.calls != 0 {
		t.Error("explicit elements must not hit the element source")
	}
}

func TestTrajectoryErrors(t *testing.T) {
	f := newImpactFixture(t, constElevation(0))
	el := apophis().Elements
	tests := []struct {
		name string
		req  TrajectoryRequest
	}{
		{"no orbit", TrajectoryRequest{Days: 10, Points: 5}},
		{"no days", TrajectoryRequest{Elements: &el, Points: 5}},
		{"no points", TrajectoryRequest{Elements: &el, Days: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Trajectory(context.Background(), tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation", err)
			}
		})
	}
}
