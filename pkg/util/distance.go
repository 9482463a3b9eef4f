package util

import (
	"math"
)

const earthRadiusMeters = 6371000.0

// DistanceMeters calculates the distance between two geographic points
// using the Haversine formula. Coordinates are in degrees (WGS84).
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degToRad(lat1)
	lon1Rad := degToRad(lon1)
	lat2Rad := degToRad(lat2)
	lon2Rad := degToRad(lon2)

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
