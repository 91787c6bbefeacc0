package chi

import (
	"context"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	domtrail "github.com/kailas-cloud/trailsearch/internal/domain/trail"
	healthuc "github.com/kailas-cloud/trailsearch/internal/usecase/health"
	"github.com/kailas-cloud/trailsearch/internal/usecase/session"
)

// Submitter starts streaming searches.
type Submitter interface {
	Submit(ctx context.Context, text, strategy string) (*session.Stream, error)
	DefaultStrategy() mode.Mode
}

// FilterParser extracts filters from free text without a model.
type FilterParser interface {
	Parse(text string) filter.Filter
}

// TrailReader serves trail lookups.
type TrailReader interface {
	Get(ctx context.Context, id int64) (domtrail.Trail, error)
	Browse(ctx context.Context, area string, limit int) ([]domtrail.Trail, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
