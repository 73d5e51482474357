// Package audit defines the per-turn audit record and a file-based
// append-only sink for it.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/propline/coldcall/internal/script"
)

// Entry records one complete turn: what was asked, what the caller said,
// what was understood, and where the conversation went next. Entries are
// never mutated after being written.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	Identity  string          `json:"identity"`
	Node      script.Node     `json:"node"`
	Question  string          `json:"question"`
	RawAnswer string          `json:"raw_answer"`
	Extracted json.RawMessage `json:"extracted,omitempty"` // nil when the answer was unclear
	Unclear   bool            `json:"unclear,omitempty"`
	NextNode  script.Node     `json:"next_node"`
	Response  string          `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEntry stamps a fresh entry with an ID and timestamp.
func NewEntry(identity string) Entry {
	return Entry{
		ID:        uuid.New(),
		Identity:  identity,
		CreatedAt: time.Now().UTC(),
	}
}
