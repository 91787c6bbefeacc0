package trail

import (
	"database/sql"
	"strings"

	domtrail "github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// columns is the select list shared by every read query, in scan order.
const columns = `id, name, distance_km, elevation_gain_m, difficulty, route_type, dogs_allowed,
	features, latitude, longitude, description, city, county, state, region, country,
	parking_available, parking_type, restrooms, water_available, picnic_areas,
	camping_available, entry_fee, permit_required, seasonal_access, accessibility,
	surface_type, trail_markers, managing_agency, website_url, phone_number`

const insertSQL = `INSERT OR REPLACE INTO trails (` + columns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// encodeFeatures stores features comma-delimited with leading and trailing
// commas so a single token matches with LIKE '%,token,%'.
func encodeFeatures(features []string) string {
	if len(features) == 0 {
		return ","
	}
	return "," + strings.Join(features, ",") + ","
}

func decodeFeatures(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func insertArgs(t domtrail.Trail) []any {
	return []any{
		t.ID, t.Name, t.DistanceKm, t.ElevationGainM, string(t.Difficulty), string(t.RouteType), t.DogsAllowed,
		encodeFeatures(t.Features), t.Latitude, t.Longitude, t.Description, t.City, t.County, t.State, t.Region, t.Country,
		t.ParkingAvailable, t.ParkingType, t.Restrooms, t.WaterAvailable, t.PicnicAreas,
		t.CampingAvailable, t.EntryFee, t.PermitRequired, t.SeasonalAccess, string(t.Accessibility),
		t.SurfaceType, t.TrailMarkers, t.ManagingAgency, t.WebsiteURL, t.PhoneNumber,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrail(s scanner) (domtrail.Trail, error) {
	var (
		t                             domtrail.Trail
		difficulty, routeType, access string
		features                      string
	)
	err := s.Scan(
		&t.ID, &t.Name, &t.DistanceKm, &t.ElevationGainM, &difficulty, &routeType, &t.DogsAllowed,
		&features, &t.Latitude, &t.Longitude, &t.Description, &t.City, &t.County, &t.State, &t.Region, &t.Country,
		&t.ParkingAvailable, &t.ParkingType, &t.Restrooms, &t.WaterAvailable, &t.PicnicAreas,
		&t.CampingAvailable, &t.EntryFee, &t.PermitRequired, &t.SeasonalAccess, &access,
		&t.SurfaceType, &t.TrailMarkers, &t.ManagingAgency, &t.WebsiteURL, &t.PhoneNumber,
	)
	if err != nil {
		return domtrail.Trail{}, err
	}
	t.Difficulty = domtrail.Difficulty(difficulty)
	t.RouteType = domtrail.RouteType(routeType)
	t.Accessibility = domtrail.Accessibility(access)
	t.Features = decodeFeatures(features)
	return t, nil
}

func scanAll(rows *sql.Rows) ([]domtrail.Trail, error) {
	out := []domtrail.Trail{}
	for rows.Next() {
		t, err := scanTrail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
