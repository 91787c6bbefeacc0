package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	domtrail "github.com/kailas-cloud/trailsearch/internal/domain/trail"
	"github.com/kailas-cloud/trailsearch/internal/logger"
	healthuc "github.com/kailas-cloud/trailsearch/internal/usecase/health"
	"github.com/kailas-cloud/trailsearch/internal/usecase/session"
)

// Server holds the HTTP handlers.
type Server struct {
	sessions Submitter
	parser   FilterParser
	trails   TrailReader
	health   HealthChecker
}

// NewServer creates an HTTP API server.
func NewServer(sessions Submitter, parser FilterParser, trails TrailReader, health HealthChecker) *Server {
	return &Server{sessions: sessions, parser: parser, trails: trails, health: health}
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Text     string `json:"text"`
	Strategy string `json:"strategy,omitempty"`
}

// Search handles POST /api/search. Invalid input is rejected with a JSON
// error before the stream starts; afterwards every event is one SSE line.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, CodeInternal, "streaming not supported")
		return
	}

	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	stream, err := s.sessions.Submit(r.Context(), req.Text, req.Strategy)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context()).With(zap.String("search_id", stream.ID))
	sse := newSSEWriter(w, flusher)
	// Keep draining after a write failure so the session can finish.
	for e := range stream.Events() {
		if sse == nil {
			continue
		}
		if err := sse.write(e); err != nil {
			log.Warn("Client stopped reading", zap.Error(err))
			sse = nil
		}
	}
	if err := stream.Err(); err != nil {
		log.Info("Search abandoned", zap.Error(err))
	}
}

// ParseFilters handles POST /api/parse. It runs the heuristic parser alone
// and returns the facets it found; strategy is accepted and ignored.
func (s *Server) ParseFilters(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}
	text, err := session.ValidateText(req.Text)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	spec := s.parser.Parse(text).Spec()
	logger.FromContext(r.Context()).Debug("Parsed filters", zap.Any("filters", spec))
	writeJSON(w, http.StatusOK, spec)
}

// decodeSearchRequest reads a SearchRequest body, writing the error
// response itself when decoding fails.
func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (SearchRequest, bool) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeRequestTooLarge,
				"request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return req, false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

// TrailView is the wire form of a single trail.
type TrailView struct {
	domtrail.Trail
	DistanceMiles float64 `json:"distance_miles"`
}

func viewOf(t domtrail.Trail) TrailView {
	return TrailView{Trail: t, DistanceMiles: float64(int(t.DistanceMiles()*100+0.5)) / 100}
}

// GetTrail handles GET /api/trails/{id}.
func (s *Server) GetTrail(w http.ResponseWriter, r *http.Request) {
	id, err := bindTrailID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "trail id must be a positive integer")
		return
	}
	t, err := s.trails.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(t))
}

// TrailListResponse is the body of GET /api/trails.
type TrailListResponse struct {
	Items []TrailView `json:"items"`
	Count int         `json:"count"`
}

// ListTrails handles GET /api/trails?area=&limit=.
func (s *Server) ListTrails(w http.ResponseWriter, r *http.Request) {
	params, err := bindListTrailsParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be a positive integer")
		return
	}
	var (
		area  string
		limit int
	)
	if params.Area != nil {
		area = *params.Area
	}
	if params.Limit != nil {
		limit = *params.Limit
	}

	trails, err := s.trails.Browse(r.Context(), area, limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items := make([]TrailView, 0, len(trails))
	for _, t := range trails {
		items = append(items, viewOf(t))
	}
	writeJSON(w, http.StatusOK, TrailListResponse{Items: items, Count: len(items)})
}

// StrategyInfo describes one selectable strategy.
type StrategyInfo struct {
	Name        mode.Mode `json:"name"`
	Alias       string    `json:"alias"`
	Description string    `json:"description"`
	Default     bool      `json:"default"`
}

var strategyInfo = map[mode.Mode]StrategyInfo{
	mode.Direct: {
		Name: mode.Direct, Alias: "A",
		Description: "Single-pass tool calling: the model extracts filters and narrates the results.",
	},
	mode.Reasoning: {
		Name: mode.Reasoning, Alias: "B",
		Description: "Plan, act, observe loop with working notes and smart defaults for vague wording.",
	},
}

// Strategies handles GET /api/strategies.
func (s *Server) Strategies(w http.ResponseWriter, _ *http.Request) {
	out := make([]StrategyInfo, 0, len(strategyInfo))
	for _, m := range mode.All() {
		info := strategyInfo[m]
		info.Default = m == s.sessions.DefaultStrategy()
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health. A degraded service still answers
// searches and reports 200; only a missing dataset is 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: report.Status, Checks: report.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
