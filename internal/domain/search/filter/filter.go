package filter

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// Spec is the wire form of a filter. Nil pointers and empty strings mean
// "do not filter on this facet". It is the input to New and the output of
// Filter.Spec; only Filter is guaranteed to be valid.
type Spec struct {
	DistanceCapMiles   *float64 `json:"distance_cap_miles,omitempty" mapstructure:"distance_cap_miles"`
	DistanceMinMiles   *float64 `json:"distance_min_miles,omitempty" mapstructure:"distance_min_miles"`
	ElevationCapMeters *float64 `json:"elevation_cap_meters,omitempty" mapstructure:"elevation_cap_meters"`
	Difficulty         string   `json:"difficulty,omitempty" mapstructure:"difficulty"`
	RouteType          string   `json:"route_type,omitempty" mapstructure:"route_type"`
	Features           []string `json:"features,omitempty" mapstructure:"features"`
	DogsAllowed        *bool    `json:"dogs_allowed,omitempty" mapstructure:"dogs_allowed"`

	RadiusMiles *float64 `json:"radius_miles,omitempty" mapstructure:"radius_miles"`
	CenterLat   *float64 `json:"center_lat,omitempty" mapstructure:"center_lat"`
	CenterLng   *float64 `json:"center_lng,omitempty" mapstructure:"center_lng"`

	EntryFee         *bool  `json:"entry_fee,omitempty" mapstructure:"entry_fee"`
	PermitRequired   *bool  `json:"permit_required,omitempty" mapstructure:"permit_required"`
	ParkingAvailable *bool  `json:"parking_available,omitempty" mapstructure:"parking_available"`
	Restrooms        *bool  `json:"restrooms,omitempty" mapstructure:"restrooms"`
	WaterAvailable   *bool  `json:"water_available,omitempty" mapstructure:"water_available"`
	PicnicAreas      *bool  `json:"picnic_areas,omitempty" mapstructure:"picnic_areas"`
	CampingAvailable *bool  `json:"camping_available,omitempty" mapstructure:"camping_available"`
	Accessibility    string `json:"accessibility,omitempty" mapstructure:"accessibility"`
	SurfaceType      string `json:"surface_type,omitempty" mapstructure:"surface_type"`
	ManagingAgency   string `json:"managing_agency,omitempty" mapstructure:"managing_agency"`
	SeasonalAccess   string `json:"seasonal_access,omitempty" mapstructure:"seasonal_access"`

	City   string `json:"city,omitempty" mapstructure:"city"`
	County string `json:"county,omitempty" mapstructure:"county"`
	State  string `json:"state,omitempty" mapstructure:"state"`
	Region string `json:"region,omitempty" mapstructure:"region"`
}

// Repair records a facet that New dropped or rewrote.
type Repair struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (r Repair) String() string { return r.Field + ": " + r.Reason }

// Amenity is a boolean trail facet.
type Amenity string

// Amenity facets.
const (
	EntryFee         Amenity = "entry_fee"
	PermitRequired   Amenity = "permit_required"
	ParkingAvailable Amenity = "parking_available"
	Restrooms        Amenity = "restrooms"
	WaterAvailable   Amenity = "water_available"
	PicnicAreas      Amenity = "picnic_areas"
	CampingAvailable Amenity = "camping_available"
)

// Amenities lists the boolean facets in a fixed order.
var Amenities = []Amenity{
	EntryFee, PermitRequired, ParkingAvailable, Restrooms,
	WaterAvailable, PicnicAreas, CampingAvailable,
}

// Text is a free-form string facet.
type Text string

// Text facets.
const (
	SurfaceType    Text = "surface_type"
	ManagingAgency Text = "managing_agency"
	SeasonalAccess Text = "seasonal_access"
	City           Text = "city"
	County         Text = "county"
	State          Text = "state"
	Region         Text = "region"
)

// Texts lists the string facets in a fixed order.
var Texts = []Text{SurfaceType, ManagingAgency, SeasonalAccess, City, County, State, Region}

// Filter is the validated, immutable representation of search intent.
// The zero value filters nothing.
type Filter struct {
	spec Spec
}

// New validates s and builds a Filter. It never fails: facets that cannot be
// honored are dropped and reported as repairs.
func New(s Spec) (Filter, []Repair) {
	var (
		out     Spec
		repairs []Repair
	)
	drop := func(field, reason string) {
		repairs = append(repairs, Repair{Field: field, Reason: reason})
	}

	if p := s.DistanceCapMiles; p != nil {
		switch {
		case !isFinite(*p):
			drop("distance_cap_miles", "not a finite number")
		case *p <= 0:
			drop("distance_cap_miles", fmt.Sprintf("must be positive, got %g", *p))
		default:
			out.DistanceCapMiles = Float(*p)
		}
	}
	if p := s.DistanceMinMiles; p != nil {
		switch {
		case !isFinite(*p):
			drop("distance_min_miles", "not a finite number")
		case *p < 0:
			drop("distance_min_miles", fmt.Sprintf("must be non-negative, got %g", *p))
		case out.DistanceCapMiles != nil && *p > *out.DistanceCapMiles:
			drop("distance_min_miles", "greater than distance_cap_miles")
		default:
			out.DistanceMinMiles = Float(*p)
		}
	}
	if p := s.ElevationCapMeters; p != nil {
		switch {
		case !isFinite(*p):
			drop("elevation_cap_meters", "not a finite number")
		case *p < 0:
			drop("elevation_cap_meters", fmt.Sprintf("must be non-negative, got %g", *p))
		default:
			out.ElevationCapMeters = Float(*p)
		}
	}

	if s.Difficulty != "" {
		if d, ok := trail.ParseDifficulty(s.Difficulty); ok {
			out.Difficulty = string(d)
		} else {
			drop("difficulty", fmt.Sprintf("unknown value %q", s.Difficulty))
		}
	}
	if s.RouteType != "" {
		if r, ok := trail.ParseRouteType(s.RouteType); ok {
			out.RouteType = string(r)
		} else {
			drop("route_type", fmt.Sprintf("unknown value %q", s.RouteType))
		}
	}
	if s.Accessibility != "" {
		if a, ok := trail.ParseAccessibility(s.Accessibility); ok {
			out.Accessibility = string(a)
		} else {
			drop("accessibility", fmt.Sprintf("unknown value %q", s.Accessibility))
		}
	}

	var features []string
	for _, f := range s.Features {
		if strings.TrimSpace(f) == "" {
			continue
		}
		if !trail.IsKnownFeature(f) {
			drop("features", fmt.Sprintf("unknown feature %q", f))
			continue
		}
		features = append(features, f)
	}
	out.Features = trail.CanonicalFeatures(features)

	out.DogsAllowed = copyBool(s.DogsAllowed)
	out.EntryFee = copyBool(s.EntryFee)
	out.PermitRequired = copyBool(s.PermitRequired)
	out.ParkingAvailable = copyBool(s.ParkingAvailable)
	out.Restrooms = copyBool(s.Restrooms)
	out.WaterAvailable = copyBool(s.WaterAvailable)
	out.PicnicAreas = copyBool(s.PicnicAreas)
	out.CampingAvailable = copyBool(s.CampingAvailable)

	out.SurfaceType = strings.ToLower(strings.TrimSpace(s.SurfaceType))
	out.ManagingAgency = strings.TrimSpace(s.ManagingAgency)
	out.SeasonalAccess = strings.ToLower(strings.TrimSpace(s.SeasonalAccess))
	out.City = strings.TrimSpace(s.City)
	out.County = strings.TrimSpace(s.County)
	out.State = strings.TrimSpace(s.State)
	out.Region = strings.TrimSpace(s.Region)

	// Radius and center are all-or-nothing.
	set := 0
	for _, p := range []*float64{s.RadiusMiles, s.CenterLat, s.CenterLng} {
		if p != nil {
			set++
		}
	}
	switch {
	case set == 0:
	case set < 3:
		drop("radius_miles", "radius and center must be given together")
	case !isFinite(*s.RadiusMiles) || *s.RadiusMiles <= 0:
		drop("radius_miles", fmt.Sprintf("must be positive, got %g", *s.RadiusMiles))
	case !geo.ValidateCoordinates(*s.CenterLat, *s.CenterLng):
		drop("center_lat", "coordinates out of range")
	default:
		out.RadiusMiles = Float(*s.RadiusMiles)
		out.CenterLat = Float(*s.CenterLat)
		out.CenterLng = Float(*s.CenterLng)
	}

	return Filter{spec: out}, repairs
}

// MustNew builds a Filter and panics if any facet needed repair.
// Intended for tests and static tables.
func MustNew(s Spec) Filter {
	f, repairs := New(s)
	if len(repairs) > 0 {
		panic(fmt.Sprintf("filter: %v", repairs))
	}
	return f
}

// DistanceCap returns the inclusive upper bound on trail length in miles.
func (f Filter) DistanceCap() (float64, bool) { return deref(f.spec.DistanceCapMiles) }

// DistanceMin returns the inclusive lower bound on trail length in miles.
func (f Filter) DistanceMin() (float64, bool) { return deref(f.spec.DistanceMinMiles) }

// ElevationCap returns the inclusive upper bound on elevation gain in meters.
func (f Filter) ElevationCap() (float64, bool) { return deref(f.spec.ElevationCapMeters) }

// Difficulty returns the required difficulty.
func (f Filter) Difficulty() (trail.Difficulty, bool) {
	return trail.Difficulty(f.spec.Difficulty), f.spec.Difficulty != ""
}

// RouteType returns the required route shape.
func (f Filter) RouteType() (trail.RouteType, bool) {
	return trail.RouteType(f.spec.RouteType), f.spec.RouteType != ""
}

// Accessibility returns the required accessibility level.
func (f Filter) Accessibility() (trail.Accessibility, bool) {
	return trail.Accessibility(f.spec.Accessibility), f.spec.Accessibility != ""
}

// Features returns the required canonical feature tokens, sorted.
func (f Filter) Features() []string {
	if len(f.spec.Features) == 0 {
		return nil
	}
	out := make([]string, len(f.spec.Features))
	copy(out, f.spec.Features)
	return out
}

// DogsAllowed returns the required dog policy.
func (f Filter) DogsAllowed() (bool, bool) { return derefBool(f.spec.DogsAllowed) }

// Amenity returns the required value of a boolean facet.
func (f Filter) Amenity(a Amenity) (bool, bool) {
	switch a {
	case EntryFee:
		return derefBool(f.spec.EntryFee)
	case PermitRequired:
		return derefBool(f.spec.PermitRequired)
	case ParkingAvailable:
		return derefBool(f.spec.ParkingAvailable)
	case Restrooms:
		return derefBool(f.spec.Restrooms)
	case WaterAvailable:
		return derefBool(f.spec.WaterAvailable)
	case PicnicAreas:
		return derefBool(f.spec.PicnicAreas)
	case CampingAvailable:
		return derefBool(f.spec.CampingAvailable)
	}
	return false, false
}

// Text returns the required value of a string facet.
func (f Filter) Text(t Text) (string, bool) {
	var v string
	switch t {
	case SurfaceType:
		v = f.spec.SurfaceType
	case ManagingAgency:
		v = f.spec.ManagingAgency
	case SeasonalAccess:
		v = f.spec.SeasonalAccess
	case City:
		v = f.spec.City
	case County:
		v = f.spec.County
	case State:
		v = f.spec.State
	case Region:
		v = f.spec.Region
	}
	return v, v != ""
}

// Geo returns the search center and radius in miles.
func (f Filter) Geo() (geo.Point, float64, bool) {
	if f.spec.RadiusMiles == nil {
		return geo.Point{}, 0, false
	}
	return geo.Point{Lat: *f.spec.CenterLat, Lng: *f.spec.CenterLng}, *f.spec.RadiusMiles, true
}

// FacetCount returns the number of constrained facets. The geo triple counts once.
func (f Filter) FacetCount() int {
	n := 0
	v := reflect.ValueOf(f.spec)
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		switch field.Kind() {
		case reflect.Pointer, reflect.Slice:
			if !field.IsNil() {
				n++
			}
		case reflect.String:
			if field.String() != "" {
				n++
			}
		}
	}
	if f.spec.RadiusMiles != nil {
		n -= 2
	}
	return n
}

// IsEmpty reports whether the filter constrains nothing.
func (f Filter) IsEmpty() bool { return f.FacetCount() == 0 }

// Spec returns a deep copy of the normalized facets.
func (f Filter) Spec() Spec {
	out := f.spec
	out.Features = f.Features()
	for _, p := range []**float64{
		&out.DistanceCapMiles, &out.DistanceMinMiles, &out.ElevationCapMeters,
		&out.RadiusMiles, &out.CenterLat, &out.CenterLng,
	} {
		if *p != nil {
			*p = Float(**p)
		}
	}
	for _, p := range []**bool{
		&out.DogsAllowed, &out.EntryFee, &out.PermitRequired, &out.ParkingAvailable,
		&out.Restrooms, &out.WaterAvailable, &out.PicnicAreas, &out.CampingAvailable,
	} {
		*p = copyBool(*p)
	}
	return out
}

// Equal reports whether two filters constrain the same facets identically.
func (f Filter) Equal(other Filter) bool {
	return reflect.DeepEqual(f.spec, other.spec)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func derefBool(p *bool) (bool, bool) {
	if p == nil {
		return false, false
	}
	return *p, true
}

func copyBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	return Bool(*p)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
