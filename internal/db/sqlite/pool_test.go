package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/trailsearch/internal/domain"
)

func openTest(t *testing.T, cfg Config, wait prometheus.Observer) *Pool {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "test.db")
	}
	p, err := Open(cfg, wait)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(Config{}, nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestExecAndTx(t *testing.T) {
	p := openTest(t, Config{}, nil)
	ctx := context.Background()

	if err := p.Exec(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	err := p.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('a', '1')`)
		return err
	})
	if err != nil {
		t.Fatalf("Tx() error = %v", err)
	}

	rollback := errors.New("rollback")
	err = p.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('b', '2')`); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("Tx() error = %v, want rollback", err)
	}

	var n int
	err = p.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n)
	})
	if err != nil || n != 1 {
		t.Errorf("count = %d, %v; want 1", n, err)
	}
}

func TestWithConn_PoolExhausted(t *testing.T) {
	p := openTest(t, Config{PoolSize: 1, AcquireTimeout: 50 * time.Millisecond}, nil)
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- p.WithConn(ctx, func(context.Context, *sql.Conn) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := p.WithConn(ctx, func(context.Context, *sql.Conn) error { return nil })
	if !errors.Is(err, domain.ErrPoolExhausted) {
		t.Errorf("WithConn() error = %v, want ErrPoolExhausted", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder error = %v", err)
	}

	// Released connection is reusable.
	if err := p.Ping(ctx); err != nil {
		t.Errorf("Ping() after release error = %v", err)
	}
}

func TestWithConn_CanceledWhileWaiting(t *testing.T) {
	p := openTest(t, Config{PoolSize: 1, AcquireTimeout: time.Minute}, nil)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = p.WithConn(context.Background(), func(context.Context, *sql.Conn) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.WithConn(ctx, func(context.Context, *sql.Conn) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithConn() error = %v, want context.Canceled", err)
	}
}

func TestWithConn_ObservesWait(t *testing.T) {
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_pool_wait_seconds"})
	p := openTest(t, Config{}, hist)

	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if got := testutil.CollectAndCount(hist); got != 1 {
		t.Errorf("collected %d metrics, want 1", got)
	}
}
