package identity

import (
	"math"

	"storefront-acquisition/internal/models"
)

const earthRadiusMeters = 6371000.0

// DistanceTier awards Points to distances strictly below BelowMeters.
type DistanceTier struct {
	BelowMeters float64
	Points      int
}

// DistanceTiers are the canonical proximity bands, nearest first.
// Everything at or beyond the last band scores 0.
var DistanceTiers = []DistanceTier{
	{BelowMeters: 50, Points: 40},
	{BelowMeters: 200, Points: 30},
	{BelowMeters: 500, Points: 20},
	{BelowMeters: 1000, Points: 10},
}

// MaxDistancePoints is the score of the nearest band.
const MaxDistancePoints = 40

// ScoreDistance maps a distance in meters onto the proximity bands.
// Negative or NaN distances score 0.
func ScoreDistance(meters float64) int {
	if math.IsNaN(meters) || meters < 0 {
		return 0
	}
	for _, tier := range DistanceTiers {
		if meters < tier.BelowMeters {
			return tier.Points
		}
	}
	return 0
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
