package searchcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/db"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

type mockInner struct {
	trails     []trail.Trail
	err        error
	queryCalls int
}

func (m *mockInner) Query(_ context.Context, _ filter.Filter) ([]trail.Trail, error) {
	m.queryCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.trails, nil
}

func (m *mockInner) Get(_ context.Context, id int64) (trail.Trail, error) {
	return trail.Trail{ID: id}, nil
}

func (m *mockInner) Browse(_ context.Context, _ string, limit int) ([]trail.Trail, error) {
	return m.trails[:min(limit, len(m.trails))], nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestRepo(t *testing.T, in *mockInner) (*Repo, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(in, ms, "trailsearch:", time.Minute, nil, zap.NewNop()), ms
}
