package orbit

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

func TestGMSTAgainstSGP4Library(t *testing.T) {
	for _, at := range []time.Time{
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		time.Date(2029, 4, 13, 21, 46, 0, 0, time.UTC),
	} {
		got := GMST(at).Rad()
		ref := satellite.GSTimeFromDate(at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
		if diff := math.Abs(got - ref); diff > 1e-6 {
			t.Errorf("GMST(%v) = %.9f, go-satellite %.9f", at, got, ref)
		}
	}
}

func TestImpactSiteRangeAndDeterminism(t *testing.T) {
	p := NewPropagator(DefaultConfig())
	el := domain.OrbitalElements{SemiMajorAxisAU: 1.4, Eccentricity: 0.35, InclinationDeg: 12, NodeDeg: 300, PerihelionDeg: 45, MeanAnomalyDeg: 200, EpochJD: domain.J2000JD}
	for d := 0; d < 2000; d += 97 {
		at := j2000.Add(time.Duration(d) * 24 * time.Hour)
		ast, err := p.Propagate(el, at)
		if err != nil {
			t.Fatal(err)
		}
		earth := EarthState(at)
		a := ImpactSite(ast, earth, at)
		b := ImpactSite(ast, earth, at)
		if a != b {
			t.Fatalf("site not deterministic: %+v vs %+v", a, b)
		}
		if a.Lat < -90 || a.Lat > 90 || a.Lon < -180 || a.Lon > 180 {
			t.Errorf("day %d: site out of range %+v", d, a)
		}
		if err := domain.ValidateCoordinates(a.Lat, a.Lon); err != nil {
			t.Errorf("day %d: %v", d, err)
		}
	}
}

func TestImpactSiteLatitudeFromDirection(t *testing.T) {
	earth := domain.StateVector{}
	above := domain.StateVector{Position: domain.Vec3{0, 0, 5000}}
	if s := ImpactSite(above, earth, j2000); math.Abs(s.Lat-90) > 1e-9 {
		t.Errorf("lat = %v, want 90", s.Lat)
	}
	plane := domain.StateVector{Position: domain.Vec3{5000, 0, 0}}
	s := ImpactSite(plane, earth, j2000)
	if math.Abs(s.Lat) > 1e-9 {
		t.Errorf("lat = %v, want 0", s.Lat)
	}
	want := domain.NormalizeDeg(-GMST(j2000).Deg())
	if math.Abs(domain.NormalizeDeg(s.Lon)-want) > 1e-9 {
		t.Errorf("lon = %v, want -GMST = %v", s.Lon, want)
	}
}
