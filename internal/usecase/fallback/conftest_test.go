package fallback

import (
	"context"
	"time"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
	"github.com/kailas-cloud/trailsearch/internal/usecase/agent"
	"github.com/kailas-cloud/trailsearch/internal/usecase/search"
)

// --- Mocks ---

type step func(ctx context.Context, sink agent.Sink) (agent.Outcome, error)

// fakeStrategy runs one step per call; the last step repeats.
type fakeStrategy struct {
	name  mode.Mode
	steps []step
	calls int
}

func (f *fakeStrategy) Name() mode.Mode { return f.name }

func (f *fakeStrategy) Run(ctx context.Context, _ agent.Input, sink agent.Sink) (agent.Outcome, error) {
	i := min(f.calls, len(f.steps)-1)
	f.calls++
	return f.steps[i](ctx, sink)
}

func fail(err error) step {
	return func(context.Context, agent.Sink) (agent.Outcome, error) { return agent.Outcome{}, err }
}

func succeed(out agent.Outcome) step {
	return func(context.Context, agent.Sink) (agent.Outcome, error) { return out, nil }
}

// emitThenFail sends a token and a trace entry before failing.
func emitThenFail(err error) step {
	return func(ctx context.Context, sink agent.Sink) (agent.Outcome, error) {
		if serr := sink.Token(ctx, "Looking"); serr != nil {
			return agent.Outcome{}, serr
		}
		if serr := sink.Trace(ctx, trace.Entry{Tool: trace.ToolSearchTrails, AI: true}); serr != nil {
			return agent.Outcome{}, serr
		}
		return agent.Outcome{}, err
	}
}

type recordSink struct {
	tokens []string
	traces []trace.Entry
	err    error
}

func (s *recordSink) Token(_ context.Context, c string) error {
	if s.err != nil {
		return s.err
	}
	s.tokens = append(s.tokens, c)
	return nil
}

func (s *recordSink) Trace(_ context.Context, e trace.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.traces = append(s.traces, e)
	return nil
}

type memRepo struct {
	trails []trail.Trail
	err    error
}

func (m *memRepo) Query(_ context.Context, _ filter.Filter) ([]trail.Trail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]trail.Trail(nil), m.trails...), nil
}

func (m *memRepo) Get(context.Context, int64) (trail.Trail, error) {
	return trail.Trail{}, domain.ErrNotFound
}

func (m *memRepo) Browse(context.Context, string, int) ([]trail.Trail, error) {
	return m.trails, nil
}

func fixtureTrails() []trail.Trail {
	return []trail.Trail{
		{
			ID: 1, Name: "Lakefront Trail Loop", DistanceKm: 3.2, ElevationGainM: 5,
			Difficulty: trail.Easy, RouteType: trail.Loop, DogsAllowed: true,
			Features: []string{"lake", "urban"}, Latitude: 41.8819, Longitude: -87.6278,
		},
		{
			ID: 2, Name: "Starved Rock Waterfall Trail", DistanceKm: 4.8, ElevationGainM: 45,
			Difficulty: trail.Moderate, RouteType: trail.OutAndBack, DogsAllowed: true,
			Features: []string{"canyon", "waterfall"}, Latitude: 41.3186, Longitude: -88.9951,
		},
		{
			ID: 3, Name: "Indiana Dunes Beach Trail", DistanceKm: 2.1, ElevationGainM: 30,
			Difficulty: trail.Easy, RouteType: trail.Loop, DogsAllowed: true,
			Features: []string{"beach", "dunes", "lake"}, Latitude: 41.6532, Longitude: -87.0921,
		},
		{
			ID: 4, Name: "Devil's Lake East Bluff", DistanceKm: 2.4, ElevationGainM: 150,
			Difficulty: trail.Hard, RouteType: trail.Loop, DogsAllowed: true,
			Features: []string{"bluff", "lake"}, Latitude: 43.4167, Longitude: -89.7287,
		},
	}
}

func newController(repo *memRepo, strategies ...agent.Strategy) *Controller {
	if repo == nil {
		repo = &memRepo{trails: fixtureTrails()}
	}
	return New(strategies, search.New(repo), parser.New(geo.DefaultReferencePoints()), RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}, 10)
}
