package orbit

import (
	"errors"
	"math"
	"testing"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

func TestSolveKeplerRoundTrip(t *testing.T) {
	for e := 0.0; e <= 0.9+1e-9; e += 0.05 {
		for m := 0.0; m < 2*math.Pi; m += 0.07 {
			ecc, iters, err := SolveKepler(m, e, 1e-8, 100)
			if err != nil {
				t.Fatalf("SolveKepler(M=%v, e=%v): %v", m, e, err)
			}
			if iters < 1 || iters > 100 {
				t.Fatalf("iterations = %d", iters)
			}
			if got := MeanFromEccentric(ecc, e); math.Abs(got-m) > 1e-6 {
				t.Errorf("e=%.2f M=%.3f: reconstructed M=%.9f (diff %.2e)", e, m, got, math.Abs(got-m))
			}
		}
	}
}

func TestSolveKeplerCircular(t *testing.T) {
	ecc, iters, err := SolveKepler(1.234, 0, 1e-8, 100)
	if err != nil {
		t.Fatal(err)
	}
	if ecc != 1.234 || iters != 1 {
		t.Errorf("circular orbit: E=%v after %d iterations, want M after 1", ecc, iters)
	}
}

func TestSolveKeplerConvergenceError(t *testing.T) {
	_, iters, err := SolveKepler(1, 0.9, 1e-15, 1)
	if !errors.Is(err, domain.ErrConvergence) {
		t.Fatalf("err = %v, want convergence error", err)
	}
	if iters != 1 {
		t.Errorf("iterations = %d, want 1", iters)
	}
	var de *domain.Error
	if !errors.As(err, &de) || de.Field != "e" || de.Value != 0.9 {
		t.Errorf("error does not name eccentricity: %#v", de)
	}
}

func TestSolveKeplerRejectsOpenOrbits(t *testing.T) {
	for _, e := range []float64{1, 1.5, -0.1, math.NaN()} {
		_, _, err := SolveKepler(1, e, 1e-8, 100)
		var de *domain.Error
		if !errors.Is(err, domain.ErrValidation) || !errors.As(err, &de) || de.Field != "e" {
			t.Errorf("e=%v: err = %v, want validation error on field e", e, err)
		}
	}
}

func TestTrueAnomaly(t *testing.T) {
	if nu := TrueAnomaly(0, 0.5); nu != 0 {
		t.Errorf("perihelion true anomaly = %v, want 0", nu)
	}
	if nu := TrueAnomaly(math.Pi, 0.5); math.Abs(math.Abs(nu)-math.Pi) > 1e-12 {
		t.Errorf("aphelion true anomaly = %v, want pi", nu)
	}
	if nu := TrueAnomaly(1, 0); math.Abs(nu-1) > 1e-12 {
		t.Errorf("circular true anomaly = %v, want E", nu)
	}
}
