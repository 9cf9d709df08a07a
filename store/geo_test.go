package store

import (
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	if d := HaversineMeters(-121.5, 38.5, -121.5, 38.5); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// One degree of latitude is roughly 111.2 km
	d := HaversineMeters(0, 0, 0, 1)
	if math.Abs(d-111195) > 500 {
		t.Errorf("one degree latitude = %v m, want ~111195", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := HaversineMeters(-121.16, 38.68, -121.50, 38.58)
	b := HaversineMeters(-121.50, 38.58, -121.16, 38.68)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestBoundingBoxCoversRadius(t *testing.T) {
	dLon, dLat := boundingBox(38.5, 10000)
	if dLat < 10000/111320.0 {
		t.Errorf("dLat = %v too small to cover radius", dLat)
	}
	// Longitude span must widen with latitude
	dLonHigh, _ := boundingBox(70, 10000)
	if dLonHigh <= dLon {
		t.Errorf("dLon at 70N (%v) should exceed dLon at 38.5N (%v)", dLonHigh, dLon)
	}
}
