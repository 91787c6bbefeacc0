package trail

import (
	"strings"

	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
)

// Difficulty is the trail difficulty grade.
type Difficulty string

// Difficulty constants.
const (
	Easy     Difficulty = "easy"
	Moderate Difficulty = "moderate"
	Hard     Difficulty = "hard"
)

// IsValid checks if the difficulty is one of the supported values.
func (d Difficulty) IsValid() bool {
	return d == Easy || d == Moderate || d == Hard
}

// ParseDifficulty normalizes free-form input into a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	return d, d.IsValid()
}

// RouteType is the shape of a trail.
type RouteType string

// Route type constants.
const (
	Loop       RouteType = "loop"
	OutAndBack RouteType = "out_and_back"
)

// IsValid checks if the route type is one of the supported values.
func (r RouteType) IsValid() bool {
	return r == Loop || r == OutAndBack
}

// ParseRouteType accepts "out and back", "out-and-back" and "out_and_back".
func ParseRouteType(s string) (RouteType, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	r := RouteType(norm)
	return r, r.IsValid()
}

// Accessibility is the mobility-aid access level.
type Accessibility string

// Accessibility constants.
const (
	Wheelchair      Accessibility = "wheelchair"
	Stroller        Accessibility = "stroller"
	NoAccessibility Accessibility = "none"
)

// IsValid checks if the accessibility level is one of the supported values.
func (a Accessibility) IsValid() bool {
	return a == Wheelchair || a == Stroller || a == NoAccessibility
}

// ParseAccessibility normalizes free-form input into an Accessibility.
func ParseAccessibility(s string) (Accessibility, bool) {
	a := Accessibility(strings.ToLower(strings.TrimSpace(s)))
	return a, a.IsValid()
}

// Trail is a read-only record from the trail dataset.
type Trail struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	DistanceKm     float64    `json:"distance_km"`
	ElevationGainM float64    `json:"elevation_gain_m"`
	Difficulty     Difficulty `json:"difficulty"`
	RouteType      RouteType  `json:"route_type"`
	DogsAllowed    bool       `json:"dogs_allowed"`
	Features       []string   `json:"features"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Description    string     `json:"description"`

	City    string `json:"city,omitempty"`
	County  string `json:"county,omitempty"`
	State   string `json:"state,omitempty"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`

	ParkingAvailable bool   `json:"parking_available"`
	ParkingType      string `json:"parking_type,omitempty"`
	Restrooms        bool   `json:"restrooms"`
	WaterAvailable   bool   `json:"water_available"`
	PicnicAreas      bool   `json:"picnic_areas"`
	CampingAvailable bool   `json:"camping_available"`

	EntryFee       bool          `json:"entry_fee"`
	PermitRequired bool          `json:"permit_required"`
	SeasonalAccess string        `json:"seasonal_access,omitempty"`
	Accessibility  Accessibility `json:"accessibility,omitempty"`
	SurfaceType    string        `json:"surface_type,omitempty"`
	TrailMarkers   bool          `json:"trail_markers"`

	ManagingAgency string `json:"managing_agency,omitempty"`
	WebsiteURL     string `json:"website_url,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
}

// DistanceMiles returns the trail length in miles.
func (t Trail) DistanceMiles() float64 {
	return t.DistanceKm * geo.KmToMiles
}

// Location returns the trailhead coordinates.
func (t Trail) Location() geo.Point {
	return geo.Point{Lat: t.Latitude, Lng: t.Longitude}
}

// HasFeature reports whether the trail carries the canonical feature token.
func (t Trail) HasFeature(feature string) bool {
	for _, f := range t.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Normalize canonicalizes feature tokens and enum spellings in place.
// Dataset loaders call it once per record.
func (t *Trail) Normalize() {
	t.Features = CanonicalFeatures(t.Features)
	if r, ok := ParseRouteType(string(t.RouteType)); ok {
		t.RouteType = r
	}
	if d, ok := ParseDifficulty(string(t.Difficulty)); ok {
		t.Difficulty = d
	}
	if a, ok := ParseAccessibility(string(t.Accessibility)); ok {
		t.Accessibility = a
	}
}
