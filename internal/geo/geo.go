// Package geo holds the flat-earth sampling geometry shared by the casualty
// and tsunami models.
package geo

import (
	"math"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// KmPerDegree is the length of one degree of latitude.
const KmPerDegree = 111.0

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0

// Offset moves distanceKm from (lat, lon) along bearingDeg (clockwise from
// north). Longitude offsets are scaled by cos(lat) and the result is clamped
// to valid latitude and wrapped to [-180, 180].
func Offset(lat, lon, bearingDeg, distanceKm float64) (float64, float64) {
	b := bearingDeg * math.Pi / 180
	dLat := distanceKm / KmPerDegree * math.Cos(b)
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	dLon := distanceKm / KmPerDegree * math.Sin(b) / cosLat
	return ClampLat(lat + dLat), WrapLon(lon + dLon)
}

// Ring returns n points evenly spaced by bearing at radiusKm around a center.
func Ring(lat, lon, radiusKm float64, n int) []domain.Location {
	out := make([]domain.Location, n)
	for k := 0; k < n; k++ {
		bearing := 360 * float64(k) / float64(n)
		la, lo := Offset(lat, lon, bearing, radiusKm)
		out[k] = domain.Location{Lat: la, Lon: lo}
	}
	return out
}

// Bearings returns the n sample bearings used by Ring.
func Bearings(n int) []float64 {
	out := make([]float64, n)
	for k := range out {
		out[k] = 360 * float64(k) / float64(n)
	}
	return out
}

// ClampLat limits a latitude to [-90, 90].
func ClampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// WrapLon maps a longitude into [-180, 180].
func WrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// DiskAreaKm2 is the area of a circle of radius r.
func DiskAreaKm2(r float64) float64 {
	return math.Pi * r * r
}
