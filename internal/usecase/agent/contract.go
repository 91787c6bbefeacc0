package agent

import (
	"context"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/request"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
	"github.com/kailas-cloud/trailsearch/internal/domain/trace"
)

// Searcher runs the search engine (ISP).
type Searcher interface {
	Search(ctx context.Context, req request.Request) ([]result.Result, error)
}

// Sink receives streamed output in emission order. A non-nil error means the
// consumer is gone and the strategy must stop.
type Sink interface {
	Token(ctx context.Context, content string) error
	Trace(ctx context.Context, e trace.Entry) error
}
