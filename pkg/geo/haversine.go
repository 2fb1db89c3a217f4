// Package geo holds the spherical-earth helpers shared by the in-memory
// store and the proximity service.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius (IUGG).
const EarthRadiusMeters = 6371008.8

// MetersPerDegreeLat is the length of one degree of latitude on the sphere.
const MetersPerDegreeLat = EarthRadiusMeters * math.Pi / 180.0

// MaxDistanceMeters is half the great circle; no two points are farther apart.
const MaxDistanceMeters = EarthRadiusMeters * math.Pi

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
