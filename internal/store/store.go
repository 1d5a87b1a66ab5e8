// Package store is the persistence layer: a thin typed contract over a
// relational store. It owns every state transition a Request goes
// through; the dispatcher and ingestion pipeline hold no state of
// their own beyond in-memory scheduling bookkeeping.
package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaDDL string

// Store wraps a pgx connection pool. No package-level handle is kept —
// every caller threads an explicit *Store through the control loop and
// ingestion so tests can run against isolated pools.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the relational store using dsn, bounding the pool
// to [minConns, maxConns].
func Open(ctx context.Context, dsn string, maxConns, minConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema. Idempotent: every statement is
// guarded with IF NOT EXISTS.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
