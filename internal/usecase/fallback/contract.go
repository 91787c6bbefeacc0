package fallback

import (
	"context"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/request"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
)

// Searcher runs the degraded search (ISP: only Search is needed).
type Searcher interface {
	Search(ctx context.Context, req request.Request) ([]result.Result, error)
}
