package agent

import (
	"context"
	"io"
	"sync"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/llm"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
	"github.com/kailas-cloud/trailsearch/internal/usecase/search"
)

// turn scripts one completion of the fake model.
type turn struct {
	chunks  []llm.Chunk
	openErr error
	recvErr error
}

// fakeLLM replays scripted turns. Past the script it answers with plain text.
type fakeLLM struct {
	mu       sync.Mutex
	turns    []turn
	repeat   *turn
	requests []llm.Request
	closed   int
}

func (f *fakeLLM) Stream(_ context.Context, req llm.Request) (llm.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.requests)
	f.requests = append(f.requests, req)

	t := turn{chunks: []llm.Chunk{{Content: "Here you go."}}}
	switch {
	case i < len(f.turns):
		t = f.turns[i]
	case f.repeat != nil:
		t = *f.repeat
	}
	if t.openErr != nil {
		return nil, t.openErr
	}
	return &fakeStream{llm: f, chunks: t.chunks, err: t.recvErr}, nil
}

type fakeStream struct {
	llm    *fakeLLM
	chunks []llm.Chunk
	err    error
	i      int
}

func (s *fakeStream) Recv() (llm.Chunk, error) {
	if s.i < len(s.chunks) {
		c := s.chunks[s.i]
		s.i++
		return c, nil
	}
	if s.err != nil {
		return llm.Chunk{}, s.err
	}
	return llm.Chunk{}, io.EOF
}

func (s *fakeStream) Close() error {
	s.llm.mu.Lock()
	s.llm.closed++
	s.llm.mu.Unlock()
	return nil
}

// callChunks splits a tool call across two deltas.
func callChunks(id, args string) []llm.Chunk {
	mid := len(args) / 2
	return []llm.Chunk{
		{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: id, Name: "search_trails", Arguments: args[:mid]}}},
		{ToolCalls: []llm.ToolCallDelta{{Index: 0, Arguments: args[mid:]}}, FinishReason: "tool_calls"},
	}
}

// recordSink keeps everything it receives in order.
type recordSink struct {
	events []string
	tokens []string
	traces []trace.Entry
	err    error
}

func (s *recordSink) Token(_ context.Context, content string) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, "token")
	s.tokens = append(s.tokens, content)
	return nil
}

func (s *recordSink) Trace(_ context.Context, e trace.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, "trace:"+e.Tool)
	s.traces = append(s.traces, e)
	return nil
}

// memRepo serves fixture trails unfiltered; the engine applies predicates.
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

func (m *memRepo) Get(_ context.Context, id int64) (trail.Trail, error) {
	for _, t := range m.trails {
		if t.ID == id {
			return t, nil
		}
	}
	return trail.Trail{}, domain.ErrNotFound
}

func (m *memRepo) Browse(_ context.Context, _ string, limit int) ([]trail.Trail, error) {
	return m.trails[:min(limit, len(m.trails))], nil
}

func fixtureTrails() []trail.Trail {
	return []trail.Trail{
		{
			ID: 1, Name: "Lakefront Trail Loop", DistanceKm: 3.2, ElevationGainM: 5,
			Difficulty: trail.Easy, RouteType: trail.Loop, DogsAllowed: true,
			Features: []string{"boardwalk", "lake", "urban"}, Latitude: 41.8819, Longitude: -87.6278,
			Description: "Scenic loop along Lake Michigan.", City: "Chicago", State: "Illinois",
		},
		{
			ID: 2, Name: "Starved Rock Waterfall Trail", DistanceKm: 4.8, ElevationGainM: 45,
			Difficulty: trail.Moderate, RouteType: trail.OutAndBack, DogsAllowed: true,
			Features: []string{"canyon", "forest", "waterfall"}, Latitude: 41.3186, Longitude: -88.9951,
			City: "Oglesby", State: "Illinois",
		},
		{
			ID: 3, Name: "Indiana Dunes Beach Trail", DistanceKm: 2.1, ElevationGainM: 30,
			Difficulty: trail.Easy, RouteType: trail.Loop, DogsAllowed: true,
			Features: []string{"beach", "dunes", "lake"}, Latitude: 41.6532, Longitude: -87.0921,
			City: "Porter", State: "Indiana",
		},
		{
			ID: 4, Name: "Devil's Lake East Bluff", DistanceKm: 2.4, ElevationGainM: 150,
			Difficulty: trail.Hard, RouteType: trail.Loop, DogsAllowed: true,
			Features: []string{"bluff", "lake"}, Latitude: 43.4167, Longitude: -89.7287,
			City: "Baraboo", State: "Wisconsin",
		},
	}
}

func newSearcher(repo *memRepo) *search.Service {
	if repo == nil {
		repo = &memRepo{trails: fixtureTrails()}
	}
	return search.New(repo)
}

func testParser() *parser.Parser {
	return parser.New(geo.DefaultReferencePoints())
}
