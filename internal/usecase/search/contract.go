package search

import (
	"context"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// Repository is the dataset contract the engine consumes.
// Query may over-approximate: the engine re-checks every facet.
type Repository interface {
	Query(ctx context.Context, f filter.Filter) ([]trail.Trail, error)
	Get(ctx context.Context, id int64) (trail.Trail, error)
	Browse(ctx context.Context, area string, limit int) ([]trail.Trail, error)
}
