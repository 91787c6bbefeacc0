// Package trail stores trail records in SQLite.
package trail

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/trailsearch/internal/db"
	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	domtrail "github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

//go:embed schema.sql
var schemaSQL string

//go:embed seed.json
var seedJSON []byte

// pool is the consumer interface for the SQLite pool (ISP).
type pool interface {
	WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error
	Exec(ctx context.Context, query string, args ...any) error
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Repo implements usecase/search.Repository.
type Repo struct {
	pool pool
}

// New creates a trail repository.
func New(p pool) *Repo {
	return &Repo{pool: p}
}

// Migrate creates the schema if it does not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	if err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	return nil
}

// Query returns every trail satisfying f's predicates, ordered by id.
func (r *Repo) Query(ctx context.Context, f filter.Filter) ([]domtrail.Trail, error) {
	where, args := whereClause(f)
	return r.list(ctx, "SELECT "+columns+" FROM trails"+where+" ORDER BY id", args...)
}

// Browse lists trails by area substring, ordered by name.
func (r *Repo) Browse(ctx context.Context, area string, limit int) ([]domtrail.Trail, error) {
	where, args := areaClause(area)
	args = append(args, limit)
	return r.list(ctx, "SELECT "+columns+" FROM trails"+where+" ORDER BY name, id LIMIT ?", args...)
}

// Get returns a trail by id or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id int64) (domtrail.Trail, error) {
	var t domtrail.Trail
	err := r.pool.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, "SELECT "+columns+" FROM trails WHERE id = ?", id)
		var err error
		t, err = scanTrail(row)
		return err
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domtrail.Trail{}, domain.ErrNotFound
	case err != nil:
		return domtrail.Trail{}, wrap(err)
	}
	return t, nil
}

// Count returns the number of stored trails.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM trails").Scan(&n)
	})
	if err != nil {
		return 0, wrap(err)
	}
	return n, nil
}

// Upsert writes trails in a single transaction, replacing rows with the same id.
func (r *Repo) Upsert(ctx context.Context, trails []domtrail.Trail) error {
	err := r.pool.Tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, t := range trails {
			t.Normalize()
			if _, err := stmt.ExecContext(ctx, insertArgs(t)...); err != nil {
				return fmt.Errorf("insert trail %d: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return wrap(err)
	}
	return nil
}

// SeedTrails returns the embedded dataset.
func SeedTrails() ([]domtrail.Trail, error) {
	var trails []domtrail.Trail
	if err := json.Unmarshal(seedJSON, &trails); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return trails, nil
}

// Seed loads the embedded dataset when the table is empty and reports how
// many trails were inserted. force reloads regardless.
func (r *Repo) Seed(ctx context.Context, force bool) (int, error) {
	if !force {
		n, err := r.Count(ctx)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return 0, nil
		}
	}
	trails, err := SeedTrails()
	if err != nil {
		return 0, err
	}
	if err := r.Upsert(ctx, trails); err != nil {
		return 0, err
	}
	return len(trails), nil
}

func (r *Repo) list(ctx context.Context, query string, args ...any) ([]domtrail.Trail, error) {
	var out []domtrail.Trail
	err := r.pool.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = scanAll(rows)
		return err
	})
	if err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

// wrap classifies store failures. Pool exhaustion and cancellation pass
// through; everything else becomes domain.ErrDatasetUnavailable.
func wrap(err error) error {
	switch {
	case errors.Is(err, domain.ErrPoolExhausted),
		errors.Is(err, domain.ErrDatasetUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%w: %w", domain.ErrDatasetUnavailable, err)}
}
