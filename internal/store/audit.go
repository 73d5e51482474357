package store

import (
	"context"
	"fmt"

	"github.com/propline/coldcall/internal/audit"
)

// Append writes one audit entry. The audit trail is append-only: entries are
// inserted and never updated.
func (s *Store) Append(ctx context.Context, e audit.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, identity, node, question, raw_answer, extracted, unclear, next_node, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Identity, e.Node, e.Question, e.RawAnswer, e.Extracted, e.Unclear, e.NextNode, e.Response, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns a caller's audit entries in turn order.
func (s *Store) ListAudit(ctx context.Context, identity string, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, identity, node, question, raw_answer, extracted, unclear, next_node, response, created_at
		FROM audit_log
		WHERE identity = $1
		ORDER BY created_at
		LIMIT $2`,
		identity, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.Identity, &e.Node, &e.Question, &e.RawAnswer, &e.Extracted, &e.Unclear, &e.NextNode, &e.Response, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}
	return entries, nil
}
