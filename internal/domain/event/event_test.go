package event

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

func decode(t *testing.T, e Event) map[string]any {
	t.Helper()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal %T: %v", e, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestMarshal_CarriesOnlyOwnFields(t *testing.T) {
	tests := []struct {
		event Event
		keys  []string
	}{
		{Start{RequestID: "01H", Strategy: mode.Direct}, []string{"type", "request_id", "strategy"}},
		{Token{Content: "Here"}, []string{"type", "content"}},
		{ToolTrace{Entry: trace.Entry{Tool: trace.ToolSearchTrails, Success: true, AI: true}}, []string{"type", "entry"}},
		{Done{}, []string{"type", "results", "filters", "trace", "degraded"}},
		{NewError(CodeDatasetUnavailable), []string{"type", "code", "message"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			m := decode(t, tt.event)
			if m["type"] != string(tt.event.Type()) {
				t.Errorf("type = %v", m["type"])
			}
			if len(m) != len(tt.keys) {
				t.Errorf("keys = %v, want %v", m, tt.keys)
			}
			for _, k := range tt.keys {
				if _, ok := m[k]; !ok {
					t.Errorf("missing key %q in %v", k, m)
				}
			}
		})
	}
}

func TestDone_Results(t *testing.T) {
	d := 3.14159
	r := result.New(trail.Trail{ID: 1, Name: "Lakefront Trail Loop", DistanceKm: 3.2}, 0.5, &d, "loop route")
	e := Done{
		Results: []result.Result{r},
		Filters: filter.MustNew(filter.Spec{RouteType: "loop"}).Spec(),
		Trace:   []trace.Entry{{Tool: trace.ToolSearchTrails, ResultCount: 1, Success: true, AI: true}},
	}
	m := decode(t, e)

	results := m["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
	first := results[0].(map[string]any)
	if first["name"] != "Lakefront Trail Loop" {
		t.Errorf("name = %v", first["name"])
	}
	if first["distance_miles"] != 1.99 {
		t.Errorf("distance_miles = %v", first["distance_miles"])
	}
	if first["distance_from_center_miles"] != 3.1 {
		t.Errorf("distance_from_center_miles = %v", first["distance_from_center_miles"])
	}
	if first["why"] != "loop route" {
		t.Errorf("why = %v", first["why"])
	}
	if m["filters"].(map[string]any)["route_type"] != "loop" {
		t.Errorf("filters = %v", m["filters"])
	}
}

func TestDone_EmptyResultsEncodeAsArray(t *testing.T) {
	b, err := json.Marshal(Done{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"results":[]`) || !strings.Contains(string(b), `"trace":[]`) {
		t.Errorf("json = %s", b)
	}
}

func TestNewError_Sanitized(t *testing.T) {
	e := NewError("boom: sql: connection refused")
	if e.Code != CodeInternal {
		t.Errorf("unknown code should map to internal, got %q", e.Code)
	}
	if strings.Contains(e.Message, "sql") {
		t.Errorf("message leaks detail: %q", e.Message)
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(Token{}) || IsTerminal(Start{}) || IsTerminal(ToolTrace{}) {
		t.Error("non-terminal reported terminal")
	}
	if !IsTerminal(Done{}) || !IsTerminal(NewError(CodeInternal)) {
		t.Error("terminal not reported")
	}
}
