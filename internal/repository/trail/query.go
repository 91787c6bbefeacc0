package trail

import (
	"math"
	"strings"

	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
)

// milesPerDegreeLat is the length of one degree of latitude.
const milesPerDegreeLat = 69.0

// whereClause translates the filter's facets into SQL predicates.
// The geographic radius becomes a bounding box, which over-approximates the
// circle; the search engine applies the exact great-circle test.
func whereClause(f filter.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, a ...any) {
		conds = append(conds, cond)
		args = append(args, a...)
	}

	// Same arithmetic as Trail.DistanceMiles so the inclusive bound agrees.
	if v, ok := f.DistanceCap(); ok {
		add("distance_km * ? <= ?", geo.KmToMiles, v)
	}
	if v, ok := f.DistanceMin(); ok {
		add("distance_km * ? >= ?", geo.KmToMiles, v)
	}
	if v, ok := f.ElevationCap(); ok {
		add("elevation_gain_m <= ?", v)
	}
	if v, ok := f.Difficulty(); ok {
		add("difficulty = ?", string(v))
	}
	if v, ok := f.RouteType(); ok {
		add("route_type = ?", string(v))
	}
	if v, ok := f.Accessibility(); ok {
		add("accessibility = ?", string(v))
	}
	if v, ok := f.DogsAllowed(); ok {
		add("dogs_allowed = ?", v)
	}
	for _, feat := range f.Features() {
		add("features LIKE ?", "%,"+feat+",%")
	}
	for _, a := range filter.Amenities {
		if v, ok := f.Amenity(a); ok {
			add(string(a)+" = ?", v)
		}
	}
	for _, tx := range filter.Texts {
		v, ok := f.Text(tx)
		if !ok {
			continue
		}
		switch tx {
		case filter.SurfaceType, filter.SeasonalAccess:
			add(string(tx)+" = ? COLLATE NOCASE", v)
		default:
			add(string(tx)+` LIKE ? ESCAPE '\'`, "%"+escapeLike(v)+"%")
		}
	}
	if center, radius, ok := f.Geo(); ok {
		dLat := radius / milesPerDegreeLat * 1.01
		add("latitude BETWEEN ? AND ?", center.Lat-dLat, center.Lat+dLat)
		// Near the poles or the antimeridian the box is skipped for longitude.
		if cos := math.Cos((math.Abs(center.Lat) + dLat) * math.Pi / 180); cos > 0.01 {
			dLng := radius / (milesPerDegreeLat * cos) * 1.01
			if center.Lng-dLng >= -180 && center.Lng+dLng <= 180 {
				add("longitude BETWEEN ? AND ?", center.Lng-dLng, center.Lng+dLng)
			}
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// areaClause matches trails whose city, county, state or region contains area.
func areaClause(area string) (string, []any) {
	area = strings.TrimSpace(area)
	if area == "" {
		return "", nil
	}
	pattern := "%" + escapeLike(area) + "%"
	var conds []string
	var args []any
	for _, col := range []string{"city", "county", "state", "region"} {
		conds = append(conds, col+` LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	return " WHERE (" + strings.Join(conds, " OR ") + ")", args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
