package domain

import "context"

// ElevationSource returns the terrain elevation in meters, negative below
// sea level.
type ElevationSource interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
}

// PopulationSource returns the population density around a point.
type PopulationSource interface {
	Density(ctx context.Context, lat, lon float64) (DensityReading, error)
}

// ElementSource resolves a small-body designation to its orbit.
type ElementSource interface {
	Lookup(ctx context.Context, designation string) (SmallBody, error)
}

// SourcedElevation is implemented by elevation sources that can tell a
// cached reading from a live one.
type SourcedElevation interface {
	SourcedElevation(ctx context.Context, lat, lon float64) (Sourced[float64], error)
}
