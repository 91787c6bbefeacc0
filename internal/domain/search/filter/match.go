package filter

import (
	"strings"

	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// Matches reports whether t satisfies every set facet except the geographic
// radius, which the search engine applies as a separate step.
// Caps and minimums are inclusive.
func (f Filter) Matches(t trail.Trail) bool {
	if v, ok := f.DistanceCap(); ok && t.DistanceMiles() > v {
		return false
	}
	if v, ok := f.DistanceMin(); ok && t.DistanceMiles() < v {
		return false
	}
	if v, ok := f.ElevationCap(); ok && t.ElevationGainM > v {
		return false
	}
	if v, ok := f.Difficulty(); ok && t.Difficulty != v {
		return false
	}
	if v, ok := f.RouteType(); ok && t.RouteType != v {
		return false
	}
	if v, ok := f.Accessibility(); ok && t.Accessibility != v {
		return false
	}
	if v, ok := f.DogsAllowed(); ok && t.DogsAllowed != v {
		return false
	}
	for _, feat := range f.spec.Features {
		if !t.HasFeature(feat) {
			return false
		}
	}
	for _, a := range Amenities {
		if v, ok := f.Amenity(a); ok && AmenityOf(t, a) != v {
			return false
		}
	}
	for _, tx := range Texts {
		v, ok := f.Text(tx)
		if !ok {
			continue
		}
		got := TextOf(t, tx)
		switch tx {
		case SurfaceType, SeasonalAccess:
			if !strings.EqualFold(got, v) {
				return false
			}
		default:
			if !containsFold(got, v) {
				return false
			}
		}
	}
	return true
}

// AmenityOf reads a boolean facet from a trail.
func AmenityOf(t trail.Trail, a Amenity) bool {
	switch a {
	case EntryFee:
		return t.EntryFee
	case PermitRequired:
		return t.PermitRequired
	case ParkingAvailable:
		return t.ParkingAvailable
	case Restrooms:
		return t.Restrooms
	case WaterAvailable:
		return t.WaterAvailable
	case PicnicAreas:
		return t.PicnicAreas
	case CampingAvailable:
		return t.CampingAvailable
	}
	return false
}

// TextOf reads a string facet from a trail.
func TextOf(t trail.Trail, tx Text) string {
	switch tx {
	case SurfaceType:
		return t.SurfaceType
	case ManagingAgency:
		return t.ManagingAgency
	case SeasonalAccess:
		return t.SeasonalAccess
	case City:
		return t.City
	case County:
		return t.County
	case State:
		return t.State
	case Region:
		return t.Region
	}
	return ""
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
