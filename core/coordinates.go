package core

import (
	"math"
)

// Geographic represents a position in geographic coordinates
type Geographic struct {
	Lat float64 // Latitude in radians [-π/2, π/2], positive = north
	Lon float64 // Longitude in radians [-π, π], positive = east
}

// DegreesToRadians converts degrees to radians
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RadiansToDegrees converts radians to degrees
func RadiansToDegrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// GeographicToUnit converts geographic coordinates to a point on the unit sphere.
// Y points to the north pole, X to 0° longitude at the equator.
func GeographicToUnit(g Geographic) Vector3 {
	cosLat := math.Cos(g.Lat)
	return Vector3{
		X: cosLat * math.Cos(g.Lon),
		Y: math.Sin(g.Lat),
		Z: cosLat * math.Sin(g.Lon),
	}
}

// UnitToGeographic converts a position to geographic coordinates, ignoring its radius
func UnitToGeographic(v Vector3) Geographic {
	r := v.Length()

	// Handle special case of origin
	if r < 1e-10 {
		return Geographic{}
	}

	return Geographic{
		Lat: math.Asin(v.Y / r),
		Lon: math.Atan2(v.Z, v.X),
	}
}
