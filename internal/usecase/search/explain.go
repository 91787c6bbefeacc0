package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

var amenityLabels = map[filter.Amenity][2]string{
	filter.EntryFee:         {"entry fee", "no entry fee"},
	filter.PermitRequired:   {"permit required", "no permit required"},
	filter.ParkingAvailable: {"parking", "no parking"},
	filter.Restrooms:        {"restrooms", "no restrooms"},
	filter.WaterAvailable:   {"water available", "no water"},
	filter.PicnicAreas:      {"picnic areas", "no picnic areas"},
	filter.CampingAvailable: {"camping", "no camping"},
}

// Explain describes why t matches f. It only mentions constrained facets
// and the query tokens that actually matched.
func Explain(f filter.Filter, t trail.Trail, fromCenter *float64, matched []string) string {
	var parts []string

	if d, ok := f.Difficulty(); ok {
		parts = append(parts, fmt.Sprintf("%s difficulty", d))
	}
	if r, ok := f.RouteType(); ok {
		parts = append(parts, strings.ReplaceAll(string(r), "_", " ")+" route")
	}

	miles := t.DistanceMiles()
	maxMi, hasMax := f.DistanceCap()
	minMi, hasMin := f.DistanceMin()
	switch {
	case hasMax && hasMin:
		parts = append(parts, fmt.Sprintf("%.1f mi (%.1f-%.1f mi)", miles, minMi, maxMi))
	case hasMax:
		parts = append(parts, fmt.Sprintf("%.1f mi (cap %.1f mi)", miles, maxMi))
	case hasMin:
		parts = append(parts, fmt.Sprintf("%.1f mi (min %.1f mi)", miles, minMi))
	}
	if v, ok := f.ElevationCap(); ok {
		parts = append(parts, fmt.Sprintf("%.0f m gain (cap %.0f m)", t.ElevationGainM, v))
	}
	if feats := f.Features(); len(feats) > 0 {
		parts = append(parts, "features: "+strings.Join(feats, ", "))
	}
	if v, ok := f.DogsAllowed(); ok {
		if v {
			parts = append(parts, "dogs allowed")
		} else {
			parts = append(parts, "no dogs")
		}
	}
	for _, a := range filter.Amenities {
		v, ok := f.Amenity(a)
		if !ok {
			continue
		}
		label := amenityLabels[a]
		if v {
			parts = append(parts, label[0])
		} else {
			parts = append(parts, label[1])
		}
	}
	if a, ok := f.Accessibility(); ok {
		switch a {
		case trail.Wheelchair:
			parts = append(parts, "wheelchair accessible")
		case trail.Stroller:
			parts = append(parts, "stroller friendly")
		default:
			parts = append(parts, "no accessibility accommodations")
		}
	}
	if _, ok := f.Text(filter.SurfaceType); ok {
		parts = append(parts, t.SurfaceType+" surface")
	}
	if _, ok := f.Text(filter.ManagingAgency); ok {
		parts = append(parts, "managed by "+t.ManagingAgency)
	}
	if _, ok := f.Text(filter.SeasonalAccess); ok {
		parts = append(parts, "open "+t.SeasonalAccess)
	}
	for _, tx := range []filter.Text{filter.City, filter.County, filter.State, filter.Region} {
		if _, ok := f.Text(tx); ok {
			parts = append(parts, "in "+filter.TextOf(t, tx))
		}
	}
	if _, radius, ok := f.Geo(); ok && fromCenter != nil {
		parts = append(parts, fmt.Sprintf("%.1f mi from center (radius %.1f mi)", *fromCenter, radius))
	}
	if len(matched) > 0 {
		parts = append(parts, "matches: "+strings.Join(matched, ", "))
	}

	if len(parts) == 0 {
		return "Matches your search"
	}
	return strings.Join(parts, "; ")
}
