package result

import "github.com/kailas-cloud/trailsearch/internal/domain/trail"

// Result is a single ranked trail match.
type Result struct {
	trail      trail.Trail
	score      float64
	fromCenter *float64
	why        string
}

// New creates a search result. fromCenter is the great-circle distance in
// miles from the filter's center, nil when no geographic filter applied.
func New(t trail.Trail, score float64, fromCenter *float64, why string) Result {
	return Result{trail: t, score: score, fromCenter: fromCenter, why: why}
}

// Trail returns the matched record.
func (r *Result) Trail() trail.Trail { return r.trail }

// ID returns the trail identifier.
func (r *Result) ID() int64 { return r.trail.ID }

// Score returns the text relevance score (0 when no query was given).
func (r *Result) Score() float64 { return r.score }

// DistanceFromCenter returns miles from the search center, if any.
func (r *Result) DistanceFromCenter() (float64, bool) {
	if r.fromCenter == nil {
		return 0, false
	}
	return *r.fromCenter, true
}

// Why returns the human-readable match explanation.
func (r *Result) Why() string { return r.why }
