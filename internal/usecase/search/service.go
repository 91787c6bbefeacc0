package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/request"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/result"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// Browse limits.
const (
	DefaultBrowseLimit = 20
	MaxBrowseLimit     = 100
)

// Service ranks trails against a filter and an optional free-text query.
type Service struct {
	repo Repository
}

// New creates a search service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

type candidate struct {
	trail      trail.Trail
	score      float64
	matched    []string
	fromCenter *float64
}

// Search returns the top req.Limit() trails satisfying every set facet.
// An empty candidate set is an empty slice, not an error.
func (s *Service) Search(ctx context.Context, req request.Request) ([]result.Result, error) {
	f := req.Filter()

	trails, err := s.repo.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query trails: %w", err)
	}

	cands := make([]candidate, 0, len(trails))
	for _, t := range trails {
		if f.Matches(t) {
			cands = append(cands, candidate{trail: t})
		}
	}

	// Geographic radius runs after the hard predicates and before ranking.
	if center, radius, ok := f.Geo(); ok {
		kept := cands[:0]
		for _, c := range cands {
			loc := c.trail.Location()
			if !loc.Valid() {
				continue
			}
			d := geo.Distance(center, loc)
			if d > radius {
				continue
			}
			c.fromCenter = &d
			kept = append(kept, c)
		}
		cands = kept
	}

	if req.HasQuery() {
		tokens := Tokenize(req.Query())
		for i := range cands {
			cands[i].score, cands[i].matched = Relevance(cands[i].trail, tokens)
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return less(cands[i], cands[j], req.HasQuery())
	})

	if len(cands) > req.Limit() {
		cands = cands[:req.Limit()]
	}

	out := make([]result.Result, 0, len(cands))
	for _, c := range cands {
		out = append(out, result.New(c.trail, c.score, c.fromCenter, Explain(f, c.trail, c.fromCenter, c.matched)))
	}
	return out, nil
}

// less orders candidates. With a query: score desc, distance from center asc,
// length asc, id asc. Without: distance from center asc when a center
// exists, otherwise length asc, then id asc.
func less(a, b candidate, byScore bool) bool {
	if byScore && a.score != b.score {
		return a.score > b.score
	}
	if a.fromCenter != nil && b.fromCenter != nil && *a.fromCenter != *b.fromCenter {
		return *a.fromCenter < *b.fromCenter
	}
	if a.trail.DistanceKm != b.trail.DistanceKm {
		return a.trail.DistanceKm < b.trail.DistanceKm
	}
	return a.trail.ID < b.trail.ID
}

// Get looks up a single trail by id.
func (s *Service) Get(ctx context.Context, id int64) (trail.Trail, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return trail.Trail{}, fmt.Errorf("get trail %d: %w", id, err)
	}
	return t, nil
}

// Browse lists trails whose city, county, state or region contains area.
// An empty area lists all trails.
func (s *Service) Browse(ctx context.Context, area string, limit int) ([]trail.Trail, error) {
	if limit <= 0 {
		limit = DefaultBrowseLimit
	}
	if limit > MaxBrowseLimit {
		limit = MaxBrowseLimit
	}
	trails, err := s.repo.Browse(ctx, area, limit)
	if err != nil {
		return nil, fmt.Errorf("browse trails: %w", err)
	}
	if trails == nil {
		trails = []trail.Trail{}
	}
	return trails, nil
}
