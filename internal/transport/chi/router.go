package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/metrics"
)

// DefaultMaxBodyBytes bounds POST /api/search and /api/parse bodies.
const DefaultMaxBodyBytes = 1024

// RouterConfig configures the HTTP router.
type RouterConfig struct {
	APIKeys      []string
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// NewRouter mounts the API routes behind the shared middleware stack.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gochi.NewRouter()
	r.Use(JSONRecoverer(cfg.Logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(cfg.Logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api", func(r gochi.Router) {
		r.With(LimitBody(cfg.MaxBodyBytes)).Post("/search", s.Search)
		r.With(LimitBody(cfg.MaxBodyBytes)).Post("/parse", s.ParseFilters)
		r.Get("/strategies", s.Strategies)
		r.Get("/trails", s.ListTrails)
		r.Get("/trails/{id}", s.GetTrail)
	})
	return r
}
