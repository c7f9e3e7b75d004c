package geo

import (
	"math"
	"testing"
	"time"
)

func TestDistanceKm_SamePoint(t *testing.T) {
	if d := DistanceKm(51.5, -0.12, 51.5, -0.12); d != 0 {
		t.Errorf("expected 0 km for identical points, got %f", d)
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// London to Paris is roughly 344 km.
	d := DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)
	if d < 330 || d > 355 {
		t.Errorf("London-Paris distance out of range: %f km", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
	b := DistanceKm(34.0522, -118.2437, 40.7128, -74.0060)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestDistanceKm_NaNPropagates(t *testing.T) {
	if d := DistanceKm(math.NaN(), 0, 0, 0); !math.IsNaN(d) {
		t.Errorf("expected NaN to propagate, got %f", d)
	}
}

func TestETAMinutes(t *testing.T) {
	cases := []struct {
		km   float64
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{2.5, 3}, // 2.5 minutes of travel rounds up
		{60, 60},
		{90, 90},
	}
	for _, tc := range cases {
		if got := ETAMinutes(tc.km); got != tc.want {
			t.Errorf("ETAMinutes(%f) = %d, want %d", tc.km, got, tc.want)
		}
	}
}

func TestEstimatedArrival(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := EstimatedArrival(now, 30)
	want := now.Add(30 * time.Minute)
	if !got.Equal(want) {
		t.Errorf("expected arrival %v, got %v", want, got)
	}
}
