package orbit

import (
	"math"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// SolveKepler solves M = E - e*sin(E) for the eccentric anomaly E by
// Newton-Raphson seeded at E0 = M. M and the result are radians. It returns
// the number of iterations used, or a convergence error once maxIter is
// exhausted.
func SolveKepler(meanAnomaly, e, tol float64, maxIter int) (float64, int, error) {
	if math.IsNaN(e) || e < 0 || e >= 1 {
		return 0, 0, domain.Validation("e", e, "eccentricity must be in [0, 1)")
	}
	ecc := meanAnomaly
	for i := 1; i <= maxIter; i++ {
		f := ecc - e*math.Sin(ecc) - meanAnomaly
		next := ecc - f/(1-e*math.Cos(ecc))
		if math.Abs(next-ecc) < tol {
			return next, i, nil
		}
		ecc = next
	}
	return 0, maxIter, domain.Convergence("e", e,
		"kepler solver exceeded iteration cap")
}

// MeanFromEccentric is the forward Kepler equation.
func MeanFromEccentric(ecc, e float64) float64 {
	return ecc - e*math.Sin(ecc)
}

// TrueAnomaly converts an eccentric anomaly to a true anomaly, both radians.
func TrueAnomaly(ecc, e float64) float64 {
	return 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(ecc/2), math.Sqrt(1-e)*math.Cos(ecc/2))
}
