package trailsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func writeSSE(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, e := range events {
		fmt.Fprintf(w, "data: %s\n\n", e)
		w.(http.Flusher).Flush()
	}
}

func TestNew_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "://bad"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q) expected error", u)
		}
	}
}

func TestSearch_Stream(t *testing.T) {
	var gotBody map[string]string
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/search" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeSSE(w,
			`{"type":"start","request_id":"01J","strategy":"reasoning"}`,
			`{"type":"token","content":"Try "}`,
			`{"type":"tool_trace","entry":{"tool":"search_trails","success":true,"ai":true,"result_count":1}}`,
			`{"type":"token","content":"Lake Loop."}`,
			`{"type":"done","results":[{"id":1,"name":"Lake Loop","distance_miles":1.99,"score":0.9,"why":"lake"}],`+
				`"filters":{"difficulty":"easy"},"trace":[{"tool":"search_trails","success":true}],"degraded":false}`,
		)
	}, WithAPIKey("secret"))

	var types []EventType
	res, err := c.Search(context.Background(), "easy lake loop", Reasoning, func(e Event) error {
		types = append(types, e.Type)
		return nil
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["text"] != "easy lake loop" || gotBody["strategy"] != "reasoning" {
		t.Errorf("body = %v", gotBody)
	}
	want := []EventType{EventStart, EventToken, EventToolTrace, EventToken, EventDone}
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", types, want)
	}
	if res.RequestID != "01J" || res.Strategy != Reasoning {
		t.Errorf("start = %q/%q", res.RequestID, res.Strategy)
	}
	if res.Narrative != "Try Lake Loop." {
		t.Errorf("Narrative = %q", res.Narrative)
	}
	if len(res.Results) != 1 || res.Results[0].Name != "Lake Loop" || res.Results[0].DistanceMiles != 1.99 {
		t.Errorf("Results = %+v", res.Results)
	}
	if res.Filters.Difficulty != "easy" || len(res.Trace) != 1 {
		t.Errorf("Filters = %+v, Trace = %+v", res.Filters, res.Trace)
	}
}

func TestSearch_ErrorEvent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeSSE(w,
			`{"type":"start","request_id":"01J","strategy":"direct"}`,
			`{"type":"error","code":"dataset_unavailable","message":"The trail database is temporarily unavailable."}`,
		)
	})

	_, err := c.Search(context.Background(), "loop", "", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "dataset_unavailable" {
		t.Fatalf("error = %v", err)
	}
	if !errors.Is(err, ErrDatasetUnavailable) {
		t.Error("expected ErrDatasetUnavailable")
	}
}

func TestSearch_Rejected(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusBadRequest, `{"code":"validation_failed","message":"text must not be empty"}`, ErrInvalidRequest},
		{http.StatusUnauthorized, `{"code":"unauthorized","message":"missing api key"}`, ErrUnauthorized},
		{http.StatusRequestEntityTooLarge, `{"code":"request_too_large","message":"too large"}`, ErrInvalidRequest},
		{http.StatusBadGateway, `upstream down`, ErrServer},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Search(context.Background(), "x", Direct, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSearch_CallbackErrorStops(t *testing.T) {
	stop := errors.New("enough")
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeSSE(w, `{"type":"start"}`, `{"type":"token","content":"a"}`, `{"type":"done"}`)
	})

	calls := 0
	_, err := c.Search(context.Background(), "x", "", func(Event) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("error = %v, calls = %d", err, calls)
	}
}

func TestSearch_TruncatedStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeSSE(w, `{"type":"start"}`, `{"type":"token","content":"a"}`)
	})
	if _, err := c.Search(context.Background(), "x", "", nil); !errors.Is(err, errStreamEnded) {
		t.Errorf("error = %v, want errStreamEnded", err)
	}
}

func TestTrails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/trails":
			if r.URL.Query().Get("area") != "Wisconsin" || r.URL.Query().Get("limit") != "5" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			_, _ = io.WriteString(w, `{"items":[{"id":7,"name":"Bluff"}],"count":1}`)
		case r.URL.Path == "/api/trails/7":
			_, _ = io.WriteString(w, `{"id":7,"name":"Bluff","distance_miles":4.2}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"not_found","message":"trail not found"}`)
		}
	})
	ctx := context.Background()

	list, err := c.Trails(ctx, "Wisconsin", 5)
	if err != nil || len(list) != 1 || list[0].ID != 7 {
		t.Fatalf("Trails() = %+v, %v", list, err)
	}
	tr, err := c.Trail(ctx, 7)
	if err != nil || tr.DistanceMiles != 4.2 {
		t.Fatalf("Trail() = %+v, %v", tr, err)
	}
	if _, err := c.Trail(ctx, 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("Trail(8) error = %v, want ErrNotFound", err)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{http.StatusOK, `{"status":"degraded","checks":{"dataset":"ok","llm":"error"}}`, "degraded", false},
		{http.StatusServiceUnavailable, `{"status":"error","checks":{"dataset":"error"}}`, "error", false},
		{http.StatusUnauthorized, `{"code":"unauthorized","message":"no"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			h, err := c.Health(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Health() error = %v", err)
			}
			if h.Status != tt.want {
				t.Errorf("Status = %q, want %q", h.Status, tt.want)
			}
		})
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"name":"direct","alias":"A","default":true}]`)
	}, WithPrometheus(reg))

	got, err := c.Strategies(context.Background())
	if err != nil || len(got) != 1 || !got[0].Default {
		t.Fatalf("Strategies() = %+v, %v", got, err)
	}
	if v := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("strategies", "ok")); v != 1 {
		t.Errorf("operations{strategies,ok} = %v, want 1", v)
	}

	// Registering twice on the same registry reuses the collectors.
	if _, err := New("http://localhost", WithPrometheus(reg)); err != nil {
		t.Errorf("second New() error = %v", err)
	}
}

func TestObserver_SearchMetricsByStrategyAndEventType(t *testing.T) {
	reg := prometheus.NewRegistry()
	degraded := false
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		done := `{"type":"done","results":[],"degraded":false}`
		if degraded {
			done = `{"type":"done","results":[],"degraded":true,"message":"relaxed"}`
		}
		writeSSE(w,
			`{"type":"start","request_id":"01J","strategy":"direct"}`,
			`{"type":"token","content":"a"}`,
			`{"type":"token","content":"b"}`,
			done,
		)
	}, WithPrometheus(reg))

	// The server-announced strategy wins over the blank request.
	if _, err := c.Search(context.Background(), "loop", "", nil); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	degraded = true
	if _, err := c.Search(context.Background(), "loop", Reasoning, nil); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	m := c.obs.metrics
	if v := testutil.ToFloat64(m.searches.WithLabelValues("direct", "done")); v != 1 {
		t.Errorf("searches{direct,done} = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.searches.WithLabelValues("direct", "degraded")); v != 1 {
		t.Errorf("searches{direct,degraded} = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.events.WithLabelValues(string(EventToken))); v != 4 {
		t.Errorf("events{token} = %v, want 4", v)
	}
	if v := testutil.ToFloat64(m.events.WithLabelValues(string(EventDone))); v != 2 {
		t.Errorf("events{done} = %v, want 2", v)
	}
}

func TestObserver_SearchErrorUsesRequestedStrategy(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"validation_failed","message":"text must not be empty"}`)
	}, WithPrometheus(reg))

	if _, err := c.Search(context.Background(), " ", Reasoning, nil); err == nil {
		t.Fatal("Search() expected error")
	}
	if v := testutil.ToFloat64(c.obs.metrics.searches.WithLabelValues("reasoning", "error")); v != 1 {
		t.Errorf("searches{reasoning,error} = %v, want 1", v)
	}
}

func TestParse(t *testing.T) {
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/parse" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"difficulty":"easy","route_type":"loop","distance_cap_miles":1.864113,"features":["lake"]}`)
	})

	f, err := c.Parse(context.Background(), "easy lake loop under 3 km")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if gotBody["text"] != "easy lake loop under 3 km" {
		t.Errorf("body = %v", gotBody)
	}
	if f.Difficulty != "easy" || f.RouteType != "loop" || len(f.Features) != 1 {
		t.Errorf("filters = %+v", f)
	}
	if f.DistanceCapMiles == nil || *f.DistanceCapMiles != 1.864113 {
		t.Errorf("distance cap = %v", f.DistanceCapMiles)
	}
}

func TestParse_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"validation_failed","message":"text must not be empty"}`)
	})

	_, err := c.Parse(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "validation_failed" {
		t.Fatalf("Parse() error = %v, want validation_failed APIError", err)
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Status: 400, Code: "bad_request", Message: "invalid JSON"}
	if !strings.Contains(err.Error(), "bad_request: invalid JSON") {
		t.Errorf("Error() = %q", err.Error())
	}
}
