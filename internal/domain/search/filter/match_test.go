package filter

import (
	"testing"

	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

func lakefront() trail.Trail {
	return trail.Trail{
		ID:               1,
		Name:             "Lakefront Trail Loop",
		DistanceKm:       3.2,
		ElevationGainM:   5,
		Difficulty:       trail.Easy,
		RouteType:        trail.Loop,
		DogsAllowed:      true,
		Features:         []string{"boardwalk", "lake", "urban"},
		Latitude:         41.8819,
		Longitude:        -87.6278,
		City:             "Chicago",
		County:           "Cook County",
		State:            "Illinois",
		Region:           "Great Lakes",
		ParkingAvailable: true,
		Restrooms:        true,
		WaterAvailable:   true,
		PicnicAreas:      true,
		Accessibility:    trail.Wheelchair,
		SurfaceType:      "paved",
		SeasonalAccess:   "year-round",
		ManagingAgency:   "Chicago Park District",
	}
}

func TestMatches(t *testing.T) {
	tr := lakefront()
	miles := tr.DistanceMiles()

	tests := []struct {
		name string
		spec Spec
		want bool
	}{
		{"empty", Spec{}, true},
		{"cap above", Spec{DistanceCapMiles: Float(3)}, true},
		{"cap exactly equal", Spec{DistanceCapMiles: Float(miles)}, true},
		{"cap below", Spec{DistanceCapMiles: Float(1)}, false},
		{"min equal", Spec{DistanceMinMiles: Float(miles)}, true},
		{"min above", Spec{DistanceMinMiles: Float(5)}, false},
		{"elevation equal", Spec{ElevationCapMeters: Float(5)}, true},
		{"elevation below", Spec{ElevationCapMeters: Float(4.9)}, false},
		{"difficulty", Spec{Difficulty: "easy"}, true},
		{"difficulty mismatch", Spec{Difficulty: "hard"}, false},
		{"route", Spec{RouteType: "loop"}, true},
		{"route mismatch", Spec{RouteType: "out_and_back"}, false},
		{"all features", Spec{Features: []string{"lake", "boardwalk"}}, true},
		{"missing feature", Spec{Features: []string{"lake", "waterfall"}}, false},
		{"dogs", Spec{DogsAllowed: Bool(true)}, true},
		{"no dogs wanted", Spec{DogsAllowed: Bool(false)}, false},
		{"free entry", Spec{EntryFee: Bool(false)}, true},
		{"camping", Spec{CampingAvailable: Bool(true)}, false},
		{"accessibility", Spec{Accessibility: "wheelchair"}, true},
		{"accessibility mismatch", Spec{Accessibility: "stroller"}, false},
		{"surface case-insensitive", Spec{SurfaceType: "PAVED"}, true},
		{"surface mismatch", Spec{SurfaceType: "dirt"}, false},
		{"agency substring", Spec{ManagingAgency: "park district"}, true},
		{"agency mismatch", Spec{ManagingAgency: "National Park Service"}, false},
		{"state", Spec{State: "illinois"}, true},
		{"county substring", Spec{County: "cook"}, true},
		{"city mismatch", Spec{City: "Milwaukee"}, false},
		{"seasonal", Spec{SeasonalAccess: "Year-Round"}, true},
		{
			"combined",
			Spec{Difficulty: "easy", RouteType: "loop", DistanceCapMiles: Float(3), Features: []string{"lake"}, DogsAllowed: Bool(true)},
			true,
		},
		{"geo is ignored", Spec{RadiusMiles: Float(1), CenterLat: Float(0), CenterLng: Float(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := MustNew(tt.spec)
			if got := f.Matches(tr); got != tt.want {
				t.Errorf("Matches = %v, want %v (spec %+v)", got, tt.want, f.Spec())
			}
		})
	}
}

func TestMatches_FeatureProperty(t *testing.T) {
	trails := []trail.Trail{
		lakefront(),
		{ID: 2, Features: []string{"waterfall", "canyon", "forest"}},
		{ID: 3, Features: []string{"dunes", "beach", "lake"}},
		{ID: 4},
	}
	for _, feature := range []string{"lake", "waterfall", "forest", "zoo"} {
		f := MustNew(Spec{Features: []string{feature}})
		for _, tr := range trails {
			if f.Matches(tr) && !tr.HasFeature(feature) {
				t.Errorf("trail %d matched features={%s} without carrying it", tr.ID, feature)
			}
		}
	}
}

func TestAmenityOfAndTextOf(t *testing.T) {
	tr := lakefront()
	if !AmenityOf(tr, Restrooms) || AmenityOf(tr, CampingAvailable) {
		t.Error("AmenityOf mismatch")
	}
	if TextOf(tr, Region) != "Great Lakes" {
		t.Errorf("TextOf(region) = %q", TextOf(tr, Region))
	}
	if got := geo.Distance(tr.Location(), geo.Point{Lat: 41.8781, Lng: -87.6298}); got > 1 {
		t.Errorf("lakefront should be within a mile of downtown, got %f", got)
	}
}
