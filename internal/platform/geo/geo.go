// Package geo provides great-circle distance and ambulance travel-time
// estimation. All functions are pure; invalid coordinates propagate NaN
// rather than being masked.
package geo

import (
	"math"
	"time"
)

const (
	earthRadiusKm = 6371

	// nominalSpeedKmh is the assumed average ambulance speed used for
	// arrival estimates.
	nominalSpeedKmh = 60
)

// DistanceKm computes the haversine distance in kilometers between two
// coordinate pairs given in degrees.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// ETAMinutes returns the estimated travel time for distanceKm at the
// nominal speed, rounded up to whole minutes.
func ETAMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm / nominalSpeedKmh * 60))
}

// EstimatedArrival returns now plus the travel time for distanceKm.
func EstimatedArrival(now time.Time, distanceKm float64) time.Time {
	return now.Add(time.Duration(ETAMinutes(distanceKm)) * time.Minute)
}
