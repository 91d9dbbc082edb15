// Package population provides a coarse population density model keyed on
// proximity to major metropolitan areas. It stands in for a gridded census
// dataset and never fails.
package population

import (
	"context"
	"math"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// City is one anchor of the model.
type City struct {
	Name          string
	Lat, Lon      float64
	DensityPerKm2 float64
}

// DefaultCities are the metropolitan anchors of the model.
var DefaultCities = []City{
	{"New York", 40.7128, -74.0060, 10000},
	{"London", 51.5074, -0.1278, 5000},
	{"Tokyo", 35.6762, 139.6503, 6000},
	{"Paris", 48.8566, 2.3522, 8000},
	{"Los Angeles", 34.0522, -118.2437, 3000},
	{"Cairo", 30.0444, 31.2357, 4000},
	{"Moscow", 55.7558, 37.6176, 4500},
	{"Delhi", 28.6139, 77.2090, 12000},
	{"Shanghai", 31.2304, 121.4737, 7000},
	{"São Paulo", -23.5505, -46.6333, 7500},
}

// Model estimates density from the nearest city. Distances are measured in
// raw degrees, which is coarse but stable.
type Model struct {
	cities      []City
	background  float64
	remoteFloor float64
}

// NewModel builds a model over cities. background is the global default
// density; remote points get max(10, 0.2*background).
func NewModel(cities []City, background float64) *Model {
	if len(cities) == 0 {
		cities = DefaultCities
	}
	if background <= 0 {
		background = 50
	}
	cs := make([]City, len(cities))
	copy(cs, cities)
	return &Model{
		cities:      cs,
		background:  background,
		remoteFloor: math.Max(10, background*0.2),
	}
}

// Density implements domain.PopulationSource. Readings within 5 degrees of a
// city are region-specific.
func (m *Model) Density(ctx context.Context, lat, lon float64) (domain.DensityReading, error) {
	if err := ctx.Err(); err != nil {
		return domain.DensityReading{}, err
	}
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return domain.DensityReading{}, err
	}

	nearest, dist := m.nearest(lat, lon)
	switch {
	case dist < 1:
		return domain.DensityReading{PerKm2: nearest.DensityPerKm2, Regional: true, Region: nearest.Name}, nil
	case dist < 5:
		return domain.DensityReading{PerKm2: nearest.DensityPerKm2 * 0.5, Regional: true, Region: nearest.Name}, nil
	case dist < 10:
		return domain.DensityReading{PerKm2: nearest.DensityPerKm2 * 0.1, Region: nearest.Name}, nil
	default:
		return domain.DensityReading{PerKm2: m.remoteFloor}, nil
	}
}

func (m *Model) nearest(lat, lon float64) (City, float64) {
	best := m.cities[0]
	bestDist := math.Inf(1)
	for _, c := range m.cities {
		d := math.Hypot(lat-c.Lat, lon-c.Lon)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}
