package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters_ZeroDistance(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{55.75, 37.61},
		{-33.86, 151.2},
		{89.9, -179.9},
	}
	for _, p := range points {
		if d := DistanceMeters(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("DistanceMeters(%v, %v, same) = %v, want 0", p[0], p[1], d)
		}
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	d1 := DistanceMeters(55.75, 37.61, 59.93, 30.31)
	d2 := DistanceMeters(59.93, 30.31, 55.75, 37.61)
	if d1 != d2 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	// One degree of latitude along a meridian is ~111.2 km.
	d := DistanceMeters(55.0, 37.61, 56.0, 37.61)
	want := EarthRadiusMeters * math.Pi / 180
	if math.Abs(d-want) > 1.0 {
		t.Errorf("one-degree meridian arc = %v, want ~%v", d, want)
	}
}

func TestDistanceMeters_MoscowToSaintPetersburg(t *testing.T) {
	// Roughly 635 km between the city centers.
	d := DistanceMeters(55.7558, 37.6173, 59.9311, 30.3609)
	if d < 600000 || d > 670000 {
		t.Errorf("Moscow-SPb distance = %v, want ~635 km", d)
	}
}
