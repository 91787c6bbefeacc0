package geo

import "math"

const (
	// EarthRadiusMiles is the mean radius of Earth used for Haversine distance.
	EarthRadiusMiles = 3958.8
	// EarthRadiusMeters is the same radius in meters.
	EarthRadiusMeters = 6_371_000.0

	// KmToMiles converts kilometers to statute miles.
	KmToMiles = 0.621371
	// MilesToKm converts statute miles to kilometers.
	MilesToKm = 1.609344
	// FeetToMeters converts feet to meters.
	FeetToMeters = 0.3048
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies inside the coordinate ranges.
func (p Point) Valid() bool {
	return ValidateCoordinates(p.Lat, p.Lng)
}

// centralAngle returns the great-circle angle in radians between two points.
func centralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// HaversineMiles returns the great-circle distance in miles between two points
// specified by latitude and longitude in degrees.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return EarthRadiusMiles * centralAngle(lat1, lon1, lat2, lon2)
}

// HaversineMeters returns the great-circle distance in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return EarthRadiusMeters * centralAngle(lat1, lon1, lat2, lon2)
}

// Distance returns the great-circle distance in miles between two points.
func Distance(a, b Point) float64 {
	return HaversineMiles(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ReferencePoint is a named locality the text parser can anchor a radius on.
type ReferencePoint struct {
	Name        string
	Keywords    []string
	Center      Point
	RadiusMiles float64
}

// Chicago is the default metro reference point.
var Chicago = ReferencePoint{
	Name:        "Chicago",
	Keywords:    []string{"chicago", "chicagoland"},
	Center:      Point{Lat: 41.8781, Lng: -87.6298},
	RadiusMiles: 37.3,
}

// DefaultReferencePoints returns the built-in reference points.
func DefaultReferencePoints() []ReferencePoint {
	return []ReferencePoint{Chicago}
}
