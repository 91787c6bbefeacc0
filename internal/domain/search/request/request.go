package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed free-text relevance query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 20
)

// Request is a validated search-engine query.
type Request struct {
	filter filter.Filter
	query  string
	limit  int
}

// New validates and normalizes search parameters.
// The query is optional; limit defaults to DefaultLimit and is clamped to MaxLimit.
func New(f filter.Filter, query string, limit int) (Request, error) {
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{filter: f, query: query, limit: limit}, nil
}

// Filter returns the hard predicates.
func (r *Request) Filter() filter.Filter { return r.filter }

// Query returns the free-text relevance query (may be empty).
func (r *Request) Query() string { return r.query }

// HasQuery reports whether relevance scoring applies.
func (r *Request) HasQuery() bool { return r.query != "" }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }
