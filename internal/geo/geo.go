// Package geo holds the shared coordinate types and great-circle math.
package geo

import "math"

// EarthRadiusKM is the mean Earth radius used for haversine distances.
const EarthRadiusKM = 6371.0

// Position is a latitude/longitude pair in degrees.
type Position struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the coordinates are within geodesic range.
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Distance returns the haversine great-circle distance between a and b in kilometers.
func Distance(a, b Position) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKM * c
}

// DegreeDistance returns the Euclidean distance between a and b in degree space.
// Route planning and weather cell lookup quantize in degrees, so their
// tolerances are expressed in this metric rather than kilometers.
func DegreeDistance(a, b Position) float64 {
	return math.Hypot(b.Lat-a.Lat, b.Lon-a.Lon)
}

// Midpoint returns the arithmetic midpoint of a and b.
// Good enough at delivery-route scale; no antimeridian handling.
func Midpoint(a, b Position) Position {
	return Position{Lat: (a.Lat + b.Lat) / 2, Lon: (a.Lon + b.Lon) / 2}
}

// Bounds is a rectangular lat/lon region.
type Bounds struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
}

// Contains reports whether p lies within the bounds, inclusive.
func (b Bounds) Contains(p Position) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() Position {
	return Position{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
