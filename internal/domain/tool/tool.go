// Package tool defines search_trails, the single capability the model may
// invoke to reach the search engine.
package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/llm"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
)

// Name is the only tool name the model may call.
const Name = "search_trails"

// Description instructs the model how to fill the arguments.
const Description = "Search the trail database. Extract every relevant facet from the user's request: " +
	"distance in miles, elevation gain in meters, difficulty, route type, features, dog policy, " +
	"amenities, accessibility, cost, managing agency and location. Leave a facet out when the user " +
	"did not mention it. Put remaining descriptive words into query."

// Arguments are the tool call parameters. They mirror the filter facets plus
// a free-text query, a result limit and a free-text location.
type Arguments struct {
	Query    string `json:"query,omitempty" description:"Free-text words not captured by other fields"`
	Limit    *int   `json:"limit,omitempty" description:"Maximum number of trails to return (1-20)"`
	Location string `json:"location,omitempty" description:"Named place the user wants to hike near, e.g. Chicago"`

	DistanceCapMiles   *float64 `json:"distance_cap_miles,omitempty" description:"Maximum trail length in miles"`
	DistanceMinMiles   *float64 `json:"distance_min_miles,omitempty" description:"Minimum trail length in miles"`
	ElevationCapMeters *float64 `json:"elevation_cap_meters,omitempty" description:"Maximum elevation gain in meters"`
	Difficulty         string   `json:"difficulty,omitempty" enum:"easy,moderate,hard"`
	RouteType          string   `json:"route_type,omitempty" enum:"loop,out_and_back"`
	Features           []string `json:"features,omitempty" description:"Landscape features such as lake, waterfall, forest, prairie, bluff"`
	DogsAllowed        *bool    `json:"dogs_allowed,omitempty" description:"True when the user wants to bring a dog"`

	RadiusMiles *float64 `json:"radius_miles,omitempty" description:"Search radius around the center in miles"`
	CenterLat   *float64 `json:"center_lat,omitempty" description:"Latitude of the search center"`
	CenterLng   *float64 `json:"center_lng,omitempty" description:"Longitude of the search center"`

	EntryFee         *bool  `json:"entry_fee,omitempty" description:"False when the user wants free trails"`
	PermitRequired   *bool  `json:"permit_required,omitempty"`
	ParkingAvailable *bool  `json:"parking_available,omitempty"`
	Restrooms        *bool  `json:"restrooms,omitempty"`
	WaterAvailable   *bool  `json:"water_available,omitempty"`
	PicnicAreas      *bool  `json:"picnic_areas,omitempty"`
	CampingAvailable *bool  `json:"camping_available,omitempty"`
	Accessibility    string `json:"accessibility,omitempty" enum:"wheelchair,stroller,none"`
	SurfaceType      string `json:"surface_type,omitempty" description:"paved, gravel, dirt, boardwalk, sand or mixed"`
	ManagingAgency   string `json:"managing_agency,omitempty"`
	SeasonalAccess   string `json:"seasonal_access,omitempty"`

	City   string `json:"city,omitempty"`
	County string `json:"county,omitempty"`
	State  string `json:"state,omitempty" description:"Full US state name"`
	Region string `json:"region,omitempty"`
}

// Schema returns the JSON schema of Arguments.
func Schema() (*jsonschema.Definition, error) {
	return jsonschema.GenerateSchemaForType(Arguments{})
}

// Spec declares the tool for a chat completion.
func Spec() (llm.ToolSpec, error) {
	schema, err := Schema()
	if err != nil {
		return llm.ToolSpec{}, fmt.Errorf("generate %s schema: %w", Name, err)
	}
	return llm.ToolSpec{Name: Name, Description: Description, Parameters: schema}, nil
}

// Decode parses a tool call. Unknown tool names and undecodable arguments
// are reported as domain.ErrMalformedToolArgs.
func Decode(name, raw string) (Arguments, error) {
	if name != Name {
		return Arguments{}, fmt.Errorf("%w: unknown tool %q", domain.ErrMalformedToolArgs, name)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Arguments{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Arguments{}, fmt.Errorf("%w: %w", domain.ErrMalformedToolArgs, err)
	}
	return DecodeMap(m)
}

// DecodeMap converts loosely typed arguments, such as those from an MCP
// client, into Arguments. Numbers and booleans given as strings are accepted.
func DecodeMap(m map[string]any) (Arguments, error) {
	var args Arguments
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &args,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Arguments{}, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return Arguments{}, fmt.Errorf("%w: %w", domain.ErrMalformedToolArgs, err)
	}
	return args, nil
}

// FilterSpec returns the facet part of the arguments.
func (a Arguments) FilterSpec() filter.Spec {
	return filter.Spec{
		DistanceCapMiles:   a.DistanceCapMiles,
		DistanceMinMiles:   a.DistanceMinMiles,
		ElevationCapMeters: a.ElevationCapMeters,
		Difficulty:         a.Difficulty,
		RouteType:          a.RouteType,
		Features:           a.Features,
		DogsAllowed:        a.DogsAllowed,
		RadiusMiles:        a.RadiusMiles,
		CenterLat:          a.CenterLat,
		CenterLng:          a.CenterLng,
		EntryFee:           a.EntryFee,
		PermitRequired:     a.PermitRequired,
		ParkingAvailable:   a.ParkingAvailable,
		Restrooms:          a.Restrooms,
		WaterAvailable:     a.WaterAvailable,
		PicnicAreas:        a.PicnicAreas,
		CampingAvailable:   a.CampingAvailable,
		Accessibility:      a.Accessibility,
		SurfaceType:        a.SurfaceType,
		ManagingAgency:     a.ManagingAgency,
		SeasonalAccess:     a.SeasonalAccess,
		City:               a.City,
		County:             a.County,
		State:              a.State,
		Region:             a.Region,
	}
}

// Filter resolves the arguments into a validated filter. A named location
// supplies the center (and the default radius when none was given); the
// user's original text is the fallback for a radius without a center.
func (a Arguments) Filter(p *parser.Parser, userText string) (filter.Filter, []filter.Repair) {
	s := a.FilterSpec()
	if a.Location != "" && (s.CenterLat == nil || s.CenterLng == nil) {
		if ref, ok := p.Locality(a.Location); ok {
			s.CenterLat = filter.Float(ref.Center.Lat)
			s.CenterLng = filter.Float(ref.Center.Lng)
			if s.RadiusMiles == nil {
				s.RadiusMiles = filter.Float(ref.RadiusMiles)
			}
		}
	}
	return p.Repair(s, userText)
}

// LimitOr returns the requested limit or def when none was given.
func (a Arguments) LimitOr(def int) int {
	if a.Limit == nil || *a.Limit <= 0 {
		return def
	}
	return *a.Limit
}

// Map returns the arguments as a generic map for trace entries.
func (a Arguments) Map() map[string]any {
	b, err := json.Marshal(a)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
