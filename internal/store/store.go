// Package store persists conversation state and the turn audit trail in
// Postgres, keyed by sanitized caller identity.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no conversation exists for an identity.
var ErrNotFound = errors.New("conversation not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			identity   text PRIMARY KEY,
			state      jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create conversations table: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS audit_log (
			id         uuid PRIMARY KEY,
			identity   text NOT NULL,
			node       text NOT NULL,
			question   text NOT NULL,
			raw_answer text NOT NULL,
			extracted  jsonb,
			unclear    boolean NOT NULL DEFAULT false,
			next_node  text NOT NULL,
			response   text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create audit_log table: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS audit_log_identity_idx
		ON audit_log (identity, created_at)`)
	if err != nil {
		return fmt.Errorf("create audit index: %w", err)
	}
	return nil
}
