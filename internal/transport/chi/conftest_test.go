package chi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/event"
	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	domtrail "github.com/kailas-cloud/trailsearch/internal/domain/trail"
	"github.com/kailas-cloud/trailsearch/internal/usecase/agent"
	healthuc "github.com/kailas-cloud/trailsearch/internal/usecase/health"
	"github.com/kailas-cloud/trailsearch/internal/usecase/session"
)

// --- Mocks ---

type mockRunner struct {
	runFn func(ctx context.Context, m mode.Mode, in agent.Input, sink agent.Sink) (event.Event, error)
}

func (m *mockRunner) Run(ctx context.Context, md mode.Mode, in agent.Input, sink agent.Sink) (event.Event, error) {
	if m.runFn != nil {
		return m.runFn(ctx, md, in, sink)
	}
	if err := sink.Token(ctx, "Try the lakefront."); err != nil {
		return nil, err
	}
	return event.Done{Message: "ok"}, nil
}

type mockTrails struct {
	trails []domtrail.Trail
	err    error

	gotArea  string
	gotLimit int
}

func (m *mockTrails) Get(_ context.Context, id int64) (domtrail.Trail, error) {
	if m.err != nil {
		return domtrail.Trail{}, m.err
	}
	for _, t := range m.trails {
		if t.ID == id {
			return t, nil
		}
	}
	return domtrail.Trail{}, domain.ErrNotFound
}

func (m *mockTrails) Browse(_ context.Context, area string, limit int) ([]domtrail.Trail, error) {
	m.gotArea, m.gotLimit = area, limit
	if m.err != nil {
		return nil, m.err
	}
	return m.trails, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type testEnv struct {
	runner *mockRunner
	trails *mockTrails
	health *mockHealth
	router http.Handler
}

func newTestEnv(keys ...string) *testEnv {
	env := &testEnv{
		runner: &mockRunner{},
		trails: &mockTrails{trails: []domtrail.Trail{
			{ID: 1, Name: "Lakefront Trail Loop", DistanceKm: 3.2, Difficulty: domtrail.Easy, RouteType: domtrail.Loop},
			{ID: 2, Name: "Starved Rock Waterfall Trail", DistanceKm: 4.8, Difficulty: domtrail.Moderate},
		}},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentDataset: healthuc.CheckOK},
		}},
	}
	srv := NewServer(session.New(env.runner), parser.New(geo.DefaultReferencePoints()), env.trails, env.health)
	env.router = NewRouter(srv, RouterConfig{APIKeys: keys})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// sseEvents parses every `data:` line of an event-stream body.
func sseEvents(t *testing.T, body string) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			t.Fatalf("unexpected line %q", line)
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			t.Fatalf("decode %q: %v", data, err)
		}
		out = append(out, m)
	}
	return out
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}
