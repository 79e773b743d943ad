package location

import (
	"math"

	"ShotTrace/internal/domain/models"
)

const (
	earthRadiusMeters = 6371000.0
	metersPerYard     = 0.9144
)

// DistanceMeters is the great-circle distance between two coordinates.
func DistanceMeters(a, b models.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func DistanceYards(a, b models.Coordinate) float64 {
	return DistanceMeters(a, b) / metersPerYard
}

// OffsetNorth moves a coordinate north by the given yards. Used to lay out
// test courses and fixtures.
func OffsetNorth(c models.Coordinate, yards float64) models.Coordinate {
	dLat := yards * metersPerYard / earthRadiusMeters * 180 / math.Pi
	return models.Coordinate{Latitude: c.Latitude + dLat, Longitude: c.Longitude}
}
