package search

import (
	"context"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// mockRepo returns its trails unfiltered so the engine's own predicates are exercised.
type mockRepo struct {
	trails     []trail.Trail
	err        error
	lastFilter filter.Filter
	lastArea   string
	lastLimit  int
}

func (m *mockRepo) Query(_ context.Context, f filter.Filter) ([]trail.Trail, error) {
	m.lastFilter = f
	if m.err != nil {
		return nil, m.err
	}
	return append([]trail.Trail(nil), m.trails...), nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (trail.Trail, error) {
	for _, t := range m.trails {
		if t.ID == id {
			return t, nil
		}
	}
	return trail.Trail{}, domain.ErrNotFound
}

func (m *mockRepo) Browse(_ context.Context, area string, limit int) ([]trail.Trail, error) {
	m.lastArea, m.lastLimit = area, limit
	if m.err != nil {
		return nil, m.err
	}
	if len(m.trails) > limit {
		return m.trails[:limit], nil
	}
	return m.trails, nil
}

func fixtureTrails() []trail.Trail {
	return []trail.Trail{
		{
			ID: 1, Name: "Lakefront Trail Loop", DistanceKm: 3.2, ElevationGainM: 5,
			Difficulty: trail.Easy, RouteType: trail.Loop, DogsAllowed: true,
			Features: []string{"boardwalk", "lake", "urban"}, Latitude: 41.8819, Longitude: -87.6278,
			Description: "Scenic loop along Lake Michigan with skyline views.",
			City: "Chicago", County: "Cook County", State: "Illinois", Region: "Great Lakes",
			Restrooms: true, SurfaceType: "paved", Accessibility: trail.Wheelchair,
		},
		{
			ID: 2, Name: "Starved Rock Waterfall Trail", DistanceKm: 4.8, ElevationGainM: 45,
			Difficulty: trail.Moderate, RouteType: trail.OutAndBack, DogsAllowed: true,
			Features: []string{"canyon", "forest", "waterfall"}, Latitude: 41.3186, Longitude: -88.9951,
			Description: "Canyons and seasonal waterfalls.",
			City: "Oglesby", County: "LaSalle County", State: "Illinois",
			SurfaceType: "dirt", Accessibility: trail.NoAccessibility,
		},
		{
			ID: 3, Name: "Indiana Dunes Beach Trail", DistanceKm: 2.1, ElevationGainM: 30,
			Difficulty: trail.Easy, RouteType: trail.Loop, DogsAllowed: true,
			Features: []string{"beach", "dunes", "lake"}, Latitude: 41.6532, Longitude: -87.0921,
			Description: "Sand dunes above the beach.",
			City: "Porter", State: "Indiana", EntryFee: true, SurfaceType: "sand",
		},
		{
			ID: 5, Name: "Chicago Riverwalk", DistanceKm: 2.4, ElevationGainM: 0,
			Difficulty: trail.Easy, RouteType: trail.OutAndBack, DogsAllowed: false,
			Features: []string{"boardwalk", "river", "urban"}, Latitude: 41.8887, Longitude: -87.6233,
			Description: "Downtown walk along the river.",
			City: "Chicago", State: "Illinois", SurfaceType: "paved",
		},
		{
			ID: 8, Name: "Millennium Park Garden Walk", DistanceKm: 1.8, ElevationGainM: 0,
			Difficulty: trail.Easy, RouteType: trail.Loop, DogsAllowed: false,
			Features: []string{"art", "garden", "urban"}, Latitude: 41.8826, Longitude: -87.622,
			Description: "Gardens and public art.",
			City: "Chicago", State: "Illinois", SurfaceType: "paved",
		},
		{
			ID: 11, Name: "Morton Arboretum", DistanceKm: 3.8, ElevationGainM: 20,
			Difficulty: trail.Easy, RouteType: trail.Loop, DogsAllowed: false,
			Features: []string{"forest", "garden", "lake"}, Latitude: 41.8167, Longitude: -88.0667,
			Description: "Tree collections around a small lake.",
			City: "Lisle", State: "Illinois", EntryFee: true, SurfaceType: "mixed",
		},
	}
}
