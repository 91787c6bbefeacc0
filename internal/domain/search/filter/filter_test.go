package filter

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

func TestNew_Empty(t *testing.T) {
	f, repairs := New(Spec{})
	if len(repairs) != 0 {
		t.Fatalf("unexpected repairs: %v", repairs)
	}
	if !f.IsEmpty() {
		t.Error("zero spec should produce an empty filter")
	}
	if f.FacetCount() != 0 {
		t.Errorf("FacetCount = %d", f.FacetCount())
	}
}

func TestNew_Repairs(t *testing.T) {
	tests := []struct {
		name  string
		spec  Spec
		field string
		check func(Filter) bool
	}{
		{
			name:  "negative distance cap",
			spec:  Spec{DistanceCapMiles: Float(-3)},
			field: "distance_cap_miles",
			check: func(f Filter) bool { _, ok := f.DistanceCap(); return !ok },
		},
		{
			name:  "zero distance cap",
			spec:  Spec{DistanceCapMiles: Float(0)},
			field: "distance_cap_miles",
			check: func(f Filter) bool { _, ok := f.DistanceCap(); return !ok },
		},
		{
			name:  "NaN elevation",
			spec:  Spec{ElevationCapMeters: Float(math.NaN())},
			field: "elevation_cap_meters",
			check: func(f Filter) bool { _, ok := f.ElevationCap(); return !ok },
		},
		{
			name:  "negative elevation",
			spec:  Spec{ElevationCapMeters: Float(-1)},
			field: "elevation_cap_meters",
			check: func(f Filter) bool { _, ok := f.ElevationCap(); return !ok },
		},
		{
			name:  "min above cap",
			spec:  Spec{DistanceCapMiles: Float(3), DistanceMinMiles: Float(5)},
			field: "distance_min_miles",
			check: func(f Filter) bool {
				_, minOK := f.DistanceMin()
				v, capOK := f.DistanceCap()
				return !minOK && capOK && v == 3
			},
		},
		{
			name:  "unknown difficulty",
			spec:  Spec{Difficulty: "extreme"},
			field: "difficulty",
			check: func(f Filter) bool { _, ok := f.Difficulty(); return !ok },
		},
		{
			name:  "unknown route",
			spec:  Spec{RouteType: "lollipop"},
			field: "route_type",
			check: func(f Filter) bool { _, ok := f.RouteType(); return !ok },
		},
		{
			name:  "unknown feature",
			spec:  Spec{Features: []string{"lake", "volcano"}},
			field: "features",
			check: func(f Filter) bool { return reflect.DeepEqual(f.Features(), []string{"lake"}) },
		},
		{
			name:  "radius without center",
			spec:  Spec{RadiusMiles: Float(10)},
			field: "radius_miles",
			check: func(f Filter) bool { _, _, ok := f.Geo(); return !ok },
		},
		{
			name:  "center without radius",
			spec:  Spec{CenterLat: Float(41.8), CenterLng: Float(-87.6)},
			field: "radius_miles",
			check: func(f Filter) bool { _, _, ok := f.Geo(); return !ok },
		},
		{
			name:  "center out of range",
			spec:  Spec{RadiusMiles: Float(10), CenterLat: Float(141.8), CenterLng: Float(-87.6)},
			field: "center_lat",
			check: func(f Filter) bool { _, _, ok := f.Geo(); return !ok },
		},
		{
			name:  "negative radius",
			spec:  Spec{RadiusMiles: Float(-10), CenterLat: Float(41.8), CenterLng: Float(-87.6)},
			field: "radius_miles",
			check: func(f Filter) bool { _, _, ok := f.Geo(); return !ok },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, repairs := New(tt.spec)
			if len(repairs) == 0 {
				t.Fatal("expected a repair")
			}
			if repairs[0].Field != tt.field {
				t.Errorf("repair field = %q, want %q", repairs[0].Field, tt.field)
			}
			if !tt.check(f) {
				t.Errorf("unexpected filter: %+v", f.Spec())
			}
		})
	}
}

func TestNew_Normalizes(t *testing.T) {
	f, repairs := New(Spec{
		Difficulty:    " Easy ",
		RouteType:     "out and back",
		Accessibility: "WHEELCHAIR",
		Features:      []string{"Falls", "lake", "waterfall", " "},
		SurfaceType:   " Paved ",
		State:         " Illinois ",
	})
	if len(repairs) != 0 {
		t.Fatalf("unexpected repairs: %v", repairs)
	}
	if d, _ := f.Difficulty(); d != trail.Easy {
		t.Errorf("difficulty = %q", d)
	}
	if r, _ := f.RouteType(); r != trail.OutAndBack {
		t.Errorf("route = %q", r)
	}
	if a, _ := f.Accessibility(); a != trail.Wheelchair {
		t.Errorf("accessibility = %q", a)
	}
	if got := f.Features(); !reflect.DeepEqual(got, []string{"lake", "waterfall"}) {
		t.Errorf("features = %v", got)
	}
	if s, _ := f.Text(SurfaceType); s != "paved" {
		t.Errorf("surface = %q", s)
	}
	if s, _ := f.Text(State); s != "Illinois" {
		t.Errorf("state = %q", s)
	}
	if f.FacetCount() != 6 {
		t.Errorf("FacetCount = %d, want 6", f.FacetCount())
	}
}

func TestNew_GeoTriple(t *testing.T) {
	f, repairs := New(Spec{RadiusMiles: Float(25), CenterLat: Float(41.8781), CenterLng: Float(-87.6298)})
	if len(repairs) != 0 {
		t.Fatalf("unexpected repairs: %v", repairs)
	}
	center, radius, ok := f.Geo()
	if !ok || radius != 25 || center.Lat != 41.8781 || center.Lng != -87.6298 {
		t.Errorf("Geo() = %v %v %v", center, radius, ok)
	}
	if f.FacetCount() != 1 {
		t.Errorf("geo triple should count once, got %d", f.FacetCount())
	}
}

func TestFilter_SpecIsDeepCopy(t *testing.T) {
	f := MustNew(Spec{DistanceCapMiles: Float(5), DogsAllowed: Bool(true), Features: []string{"lake"}})
	s := f.Spec()
	*s.DistanceCapMiles = 99
	*s.DogsAllowed = false
	s.Features[0] = "zoo"

	if v, _ := f.DistanceCap(); v != 5 {
		t.Errorf("distance cap mutated through Spec(): %v", v)
	}
	if v, _ := f.DogsAllowed(); !v {
		t.Error("dogs_allowed mutated through Spec()")
	}
	if f.Features()[0] != "lake" {
		t.Error("features mutated through Spec()")
	}
}

func TestFilter_NewDoesNotAliasInput(t *testing.T) {
	maxMiles := 5.0
	s := Spec{DistanceCapMiles: &maxMiles}
	f := MustNew(s)
	maxMiles = 50
	if v, _ := f.DistanceCap(); v != 5 {
		t.Errorf("filter aliases input pointer: %v", v)
	}
}

func TestFilter_Equal(t *testing.T) {
	a := MustNew(Spec{Features: []string{"waterfall", "lake"}, DogsAllowed: Bool(true)})
	b := MustNew(Spec{Features: []string{"lake", "falls"}, DogsAllowed: Bool(true)})
	if !a.Equal(b) {
		t.Error("filters with the same canonical facets should be equal")
	}
	c := MustNew(Spec{Features: []string{"lake"}})
	if a.Equal(c) {
		t.Error("different filters reported equal")
	}
}

func TestMustNew_PanicsOnRepair(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustNew(Spec{Difficulty: "extreme"})
}

func TestSpec_JSONOmitsAbsentFacets(t *testing.T) {
	f := MustNew(Spec{Difficulty: "easy", DistanceCapMiles: Float(3)})
	b, err := json.Marshal(f.Spec())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)
	if got != `{"distance_cap_miles":3,"difficulty":"easy"}` {
		t.Errorf("json = %s", got)
	}
}

func TestRepair_String(t *testing.T) {
	r := Repair{Field: "difficulty", Reason: "unknown value"}
	if !strings.HasPrefix(r.String(), "difficulty:") {
		t.Errorf("String() = %q", r.String())
	}
}
