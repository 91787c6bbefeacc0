// Package searchcache caches trail query results in a key-value store.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/db"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// DefaultTTL is used when New receives a non-positive ttl.
const DefaultTTL = 10 * time.Minute

// inner is the repository being decorated.
type inner interface {
	Query(ctx context.Context, f filter.Filter) ([]trail.Trail, error)
	Get(ctx context.Context, id int64) (trail.Trail, error)
	Browse(ctx context.Context, area string, limit int) ([]trail.Trail, error)
}

// store is the consumer interface for the cache backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo caches Query results. Get and Browse pass through.
// Cache failures are logged and never fail the query.
type Repo struct {
	inner      inner
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	in inner,
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Repo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{
		inner:      in,
		store:      s,
		prefix:     prefix,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Query returns cached trails for f or queries the inner repository.
func (r *Repo) Query(ctx context.Context, f filter.Filter) ([]trail.Trail, error) {
	key, err := r.cacheKey(f)
	if err != nil {
		return r.inner.Query(ctx, f)
	}

	if trails, ok := r.getFromCache(ctx, key); ok {
		r.incCache("hit")
		return trails, nil
	}
	r.incCache("miss")

	trails, err := r.inner.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query trails: %w", err)
	}
	r.putToCache(ctx, key, trails)
	return trails, nil
}

// Get passes through to the inner repository.
func (r *Repo) Get(ctx context.Context, id int64) (trail.Trail, error) {
	return r.inner.Get(ctx, id)
}

// Browse passes through to the inner repository.
func (r *Repo) Browse(ctx context.Context, area string, limit int) ([]trail.Trail, error) {
	return r.inner.Browse(ctx, area, limit)
}

func (r *Repo) incCache(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the canonical JSON form of the filter.
func (r *Repo) cacheKey(f filter.Filter) (string, error) {
	data, err := json.Marshal(f.Spec())
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(data)
	return r.prefix + "query:" + hex.EncodeToString(h[:]), nil
}

func (r *Repo) getFromCache(ctx context.Context, key string) ([]trail.Trail, bool) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to get cached query", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	trails := []trail.Trail{}
	if err := json.Unmarshal(data, &trails); err != nil {
		r.logger.Warn("Failed to parse cached query", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return trails, true
}

func (r *Repo) putToCache(ctx context.Context, key string, trails []trail.Trail) {
	data, err := json.Marshal(trails)
	if err != nil {
		r.logger.Warn("Failed to encode query result", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("Failed to cache query", zap.String("key", key), zap.Error(err))
	}
}
