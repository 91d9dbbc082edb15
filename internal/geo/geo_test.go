package geo

import (
	"math"
	"testing"
)

func TestWrapLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{179, 179},
		{181, -179},
		{-181, 179},
		{540, -180},
		{-74.006, -74.006},
	}
	for _, tt := range tests {
		if got := WrapLon(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("WrapLon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOffsetCardinalDirections(t *testing.T) {
	lat, lon := 10.0, 20.0
	north, _ := Offset(lat, lon, 0, KmPerDegree)
	if math.Abs(north-11) > 1e-9 {
		t.Errorf("north offset lat = %v, want 11", north)
	}
	_, east := Offset(lat, lon, 90, KmPerDegree)
	want := 20 + 1/math.Cos(lat*math.Pi/180)
	if math.Abs(east-want) > 1e-9 {
		t.Errorf("east offset lon = %v, want %v", east, want)
	}
}

func TestOffsetClampsAtPole(t *testing.T) {
	la, _ := Offset(89.5, 0, 0, 500)
	if la != 90 {
		t.Errorf("lat = %v, want clamp to 90", la)
	}
}

func TestRingEvenlySpaced(t *testing.T) {
	pts := Ring(0, 0, 200, 16)
	if len(pts) != 16 {
		t.Fatalf("len = %d, want 16", len(pts))
	}
	for i, p := range pts {
		d := math.Hypot(p.Lat, p.Lon) * KmPerDegree
		if math.Abs(d-200) > 1e-6 {
			t.Errorf("point %d at %.3f km, want 200", i, d)
		}
	}
	b := Bearings(16)
	if b[4] != 90 || b[8] != 180 {
		t.Errorf("bearings = %v", b)
	}
}
