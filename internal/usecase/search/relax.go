package search

import (
	"fmt"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
)

// Relaxation is a looser filter with the facet group that was dropped.
type Relaxation struct {
	Dropped string
	Filter  filter.Filter
}

type relaxStep struct {
	name  string
	clear func(s *filter.Spec) bool
}

// relaxOrder drops the most specific facets first and location last.
var relaxOrder = []relaxStep{
	{"amenities", func(s *filter.Spec) bool {
		changed := false
		for _, p := range []**bool{
			&s.EntryFee, &s.PermitRequired, &s.ParkingAvailable, &s.Restrooms,
			&s.WaterAvailable, &s.PicnicAreas, &s.CampingAvailable,
		} {
			if *p != nil {
				*p, changed = nil, true
			}
		}
		for _, p := range []*string{&s.Accessibility, &s.SurfaceType, &s.ManagingAgency, &s.SeasonalAccess} {
			if *p != "" {
				*p, changed = "", true
			}
		}
		return changed
	}},
	{"features", func(s *filter.Spec) bool {
		had := len(s.Features) > 0
		s.Features = nil
		return had
	}},
	{"elevation", func(s *filter.Spec) bool {
		had := s.ElevationCapMeters != nil
		s.ElevationCapMeters = nil
		return had
	}},
	{"route type", func(s *filter.Spec) bool {
		had := s.RouteType != ""
		s.RouteType = ""
		return had
	}},
	{"difficulty", func(s *filter.Spec) bool {
		had := s.Difficulty != ""
		s.Difficulty = ""
		return had
	}},
	{"distance", func(s *filter.Spec) bool {
		had := s.DistanceCapMiles != nil || s.DistanceMinMiles != nil
		s.DistanceCapMiles, s.DistanceMinMiles = nil, nil
		return had
	}},
	{"dog policy", func(s *filter.Spec) bool {
		had := s.DogsAllowed != nil
		s.DogsAllowed = nil
		return had
	}},
	{"location", func(s *filter.Spec) bool {
		had := s.City != "" || s.County != "" || s.State != "" || s.Region != "" || s.RadiusMiles != nil
		s.City, s.County, s.State, s.Region = "", "", "", ""
		s.RadiusMiles, s.CenterLat, s.CenterLng = nil, nil, nil
		return had
	}},
}

// Relax returns progressively looser versions of f. Each step drops one more
// facet group than the previous; the last step is the empty filter whenever
// f constrained anything.
func Relax(f filter.Filter) []Relaxation {
	spec := f.Spec()
	var out []Relaxation
	for _, step := range relaxOrder {
		if !step.clear(&spec) {
			continue
		}
		next, _ := filter.New(spec)
		out = append(out, Relaxation{Dropped: step.name, Filter: next})
	}
	return out
}

// Suggestions returns hints for loosening a filter that matched nothing.
func Suggestions(f filter.Filter) []string {
	var out []string
	if v, ok := f.DistanceCap(); ok {
		out = append(out, fmt.Sprintf("allow trails longer than %.1f miles", v))
	}
	if v, ok := f.ElevationCap(); ok {
		out = append(out, fmt.Sprintf("allow more than %.0f m of elevation gain", v))
	}
	if _, ok := f.Difficulty(); ok {
		out = append(out, "consider other difficulty levels")
	}
	if _, ok := f.RouteType(); ok {
		out = append(out, "include both loop and out-and-back routes")
	}
	if len(f.Features()) > 1 {
		out = append(out, "require fewer features")
	}
	if _, radius, ok := f.Geo(); ok {
		out = append(out, fmt.Sprintf("search farther than %.0f miles", radius))
	}
	if len(out) == 0 && !f.IsEmpty() {
		out = append(out, "remove some requirements")
	}
	return out
}
