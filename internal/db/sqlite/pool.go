// Package sqlite provides a bounded connection pool over a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"github.com/kailas-cloud/trailsearch/internal/db"
	"github.com/kailas-cloud/trailsearch/internal/domain"
)

// Defaults for Config.
const (
	DefaultPoolSize       = 5
	DefaultAcquireTimeout = 30 * time.Second
	DefaultBusyTimeout    = 5 * time.Second
)

// Config holds pool parameters.
type Config struct {
	Path           string
	PoolSize       int
	AcquireTimeout time.Duration
	BusyTimeout    time.Duration
}

// Pool hands out one connection per operation. Callers never hold a
// connection beyond the function passed to WithConn.
type Pool struct {
	db             *sql.DB
	sem            *semaphore.Weighted
	acquireTimeout time.Duration
	wait           prometheus.Observer
}

// Open opens (creating if needed) the database at cfg.Path.
// wait, if non-nil, observes seconds spent waiting for a connection.
func Open(cfg Config, wait prometheus.Observer) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = DefaultAcquireTimeout
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &db.Error{Op: db.OpOpen, Err: err}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	sqlDB.SetMaxOpenConns(cfg.PoolSize)
	sqlDB.SetMaxIdleConns(cfg.PoolSize)

	return &Pool{
		db:             sqlDB,
		sem:            semaphore.NewWeighted(int64(cfg.PoolSize)),
		acquireTimeout: cfg.AcquireTimeout,
		wait:           wait,
	}, nil
}

// WithConn acquires a connection, runs fn and releases the connection.
// Waiting longer than the acquire timeout yields domain.ErrPoolExhausted.
// Cancellation of ctx while waiting returns ctx.Err().
func (p *Pool) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	start := time.Now()
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	err := p.sem.Acquire(acquireCtx, 1)
	cancel()
	if p.wait != nil {
		p.wait.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &db.Error{Op: db.OpAcquire, Err: domain.ErrPoolExhausted}
	}
	defer p.sem.Release(1)

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return &db.Error{Op: db.OpAcquire, Err: fmt.Errorf("%w: %w", domain.ErrDatasetUnavailable, err)}
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// Exec runs a statement on a pooled connection.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) error {
	return p.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, query, args...); err != nil {
			return &db.Error{Op: db.OpExec, Err: err}
		}
		return nil
	})
}

// Tx runs fn inside a transaction on a pooled connection.
func (p *Pool) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return p.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return &db.Error{Op: db.OpExec, Err: err}
		}
		if err := fn(tx); err != nil {
			return errors.Join(err, tx.Rollback())
		}
		if err := tx.Commit(); err != nil {
			return &db.Error{Op: db.OpExec, Err: err}
		}
		return nil
	})
}

// Ping checks that a connection can be acquired and used.
func (p *Pool) Ping(ctx context.Context) error {
	return p.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := conn.PingContext(ctx); err != nil {
			return &db.Error{Op: db.OpPing, Err: err}
		}
		return nil
	})
}

// Stats reports the underlying database/sql pool statistics.
func (p *Pool) Stats() sql.DBStats { return p.db.Stats() }

// Close closes the database.
func (p *Pool) Close() error {
	if err := p.db.Close(); err != nil {
		return &db.Error{Op: db.OpOpen, Err: err}
	}
	return nil
}
