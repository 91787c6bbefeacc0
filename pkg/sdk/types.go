package trailsearch

// Strategy selects how the server answers a search.
type Strategy string

// Strategies understood by the server. Empty selects the server default.
const (
	Direct    Strategy = "direct"
	Reasoning Strategy = "reasoning"
)

// EventType identifies a streamed search event.
type EventType string

// Event types in stream order: one start, any tokens and tool traces, then
// exactly one done or error.
const (
	EventStart     EventType = "start"
	EventToken     EventType = "token"
	EventToolTrace EventType = "tool_trace"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Event is one streamed search event. Only the fields of its Type are set.
type Event struct {
	Type EventType `json:"type"`

	// start
	RequestID string   `json:"request_id,omitempty"`
	Strategy  Strategy `json:"strategy,omitempty"`

	// token
	Content string `json:"content,omitempty"`

	// tool_trace
	Entry *TraceEntry `json:"entry,omitempty"`

	// done
	Results  []TrailResult `json:"results,omitempty"`
	Filters  Filters       `json:"filters"`
	Trace    []TraceEntry  `json:"trace,omitempty"`
	Degraded bool          `json:"degraded,omitempty"`

	// done (degraded note) and error
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Trail is a trail record.
type Trail struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	DistanceKm     float64  `json:"distance_km"`
	DistanceMiles  float64  `json:"distance_miles"`
	ElevationGainM float64  `json:"elevation_gain_m"`
	Difficulty     string   `json:"difficulty"`
	RouteType      string   `json:"route_type"`
	DogsAllowed    bool     `json:"dogs_allowed"`
	Features       []string `json:"features"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Description    string   `json:"description"`

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

	EntryFee       bool   `json:"entry_fee"`
	PermitRequired bool   `json:"permit_required"`
	SeasonalAccess string `json:"seasonal_access,omitempty"`
	Accessibility  string `json:"accessibility,omitempty"`
	SurfaceType    string `json:"surface_type,omitempty"`
	TrailMarkers   bool   `json:"trail_markers"`

	ManagingAgency string `json:"managing_agency,omitempty"`
	WebsiteURL     string `json:"website_url,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
}

// TrailResult is a ranked search hit.
type TrailResult struct {
	Trail
	Score                   float64  `json:"score"`
	Why                     string   `json:"why"`
	DistanceFromCenterMiles *float64 `json:"distance_from_center_miles,omitempty"`
}

// Filters are the facets a search applied. Nil and empty fields were not
// constrained.
type Filters struct {
	DistanceCapMiles   *float64 `json:"distance_cap_miles,omitempty"`
	DistanceMinMiles   *float64 `json:"distance_min_miles,omitempty"`
	ElevationCapMeters *float64 `json:"elevation_cap_meters,omitempty"`
	Difficulty         string   `json:"difficulty,omitempty"`
	RouteType          string   `json:"route_type,omitempty"`
	Features           []string `json:"features,omitempty"`
	DogsAllowed        *bool    `json:"dogs_allowed,omitempty"`

	RadiusMiles *float64 `json:"radius_miles,omitempty"`
	CenterLat   *float64 `json:"center_lat,omitempty"`
	CenterLng   *float64 `json:"center_lng,omitempty"`

	EntryFee         *bool  `json:"entry_fee,omitempty"`
	PermitRequired   *bool  `json:"permit_required,omitempty"`
	ParkingAvailable *bool  `json:"parking_available,omitempty"`
	Restrooms        *bool  `json:"restrooms,omitempty"`
	WaterAvailable   *bool  `json:"water_available,omitempty"`
	PicnicAreas      *bool  `json:"picnic_areas,omitempty"`
	CampingAvailable *bool  `json:"camping_available,omitempty"`
	Accessibility    string `json:"accessibility,omitempty"`
	SurfaceType      string `json:"surface_type,omitempty"`
	ManagingAgency   string `json:"managing_agency,omitempty"`
	SeasonalAccess   string `json:"seasonal_access,omitempty"`

	City   string `json:"city,omitempty"`
	County string `json:"county,omitempty"`
	State  string `json:"state,omitempty"`
	Region string `json:"region,omitempty"`
}

// TraceEntry records one tool invocation or reasoning step.
type TraceEntry struct {
	Tool            string         `json:"tool"`
	DurationMS      int64          `json:"duration_ms"`
	ResultCount     int            `json:"result_count"`
	Success         bool           `json:"success"`
	AI              bool           `json:"ai"`
	InputParameters map[string]any `json:"input_parameters,omitempty"`
	SearchFilters   *Filters       `json:"search_filters,omitempty"`
	Reasoning       string         `json:"reasoning,omitempty"`
	Errors          []string       `json:"errors,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	ProcessingSteps []string       `json:"processing_steps,omitempty"`
}

// SearchResult is the outcome of a completed search.
type SearchResult struct {
	RequestID string
	Strategy  Strategy
	Narrative string
	Results   []TrailResult
	Filters   Filters
	Trace     []TraceEntry
	Degraded  bool
	Message   string
}

// StrategyInfo describes a server strategy.
type StrategyInfo struct {
	Name        Strategy `json:"name"`
	Alias       string   `json:"alias"`
	Description string   `json:"description"`
	Default     bool     `json:"default"`
}

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}
