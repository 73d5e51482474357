package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/propline/coldcall/internal/convo"
)

// Load returns the persisted conversation for an identity, or ErrNotFound.
// A snapshot that no longer parses is treated as absent: resuming a corrupt
// conversation degrades to starting over, never to a failed turn.
func (s *Store) Load(ctx context.Context, identity string) (*convo.State, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM conversations WHERE identity = $1`, identity,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", identity, err)
	}

	var state convo.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, ErrNotFound
	}
	return &state, nil
}

// Save upserts the conversation snapshot. Last write wins per identity.
func (s *Store) Save(ctx context.Context, state *convo.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversations (identity, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (identity) DO UPDATE SET state = $2, updated_at = now()`,
		state.Identity, raw,
	)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", state.Identity, err)
	}
	return nil
}

// Clear deletes the conversation for an identity. Clearing an unknown
// identity is a no-op.
func (s *Store) Clear(ctx context.Context, identity string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE identity = $1`, identity)
	if err != nil {
		return fmt.Errorf("clear conversation %s: %w", identity, err)
	}
	return nil
}
