// Package convo holds the durable per-caller conversation state.
package convo

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/propline/coldcall/internal/script"
)

// Speaker identifies who produced a transcript message.
type Speaker string

const (
	SpeakerSystem Speaker = "system"
	SpeakerUser   Speaker = "user"
)

// Message is one transcript entry.
type Message struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// State is the full resumable record of one caller's interview.
// It is mutated once per inbound turn and persisted only after the turn
// fully resolves. Once Complete is true it is immutable except for deletion.
type State struct {
	Identity         string                          `json:"identity"`
	CurrentNode      script.Node                     `json:"current_node"`
	Messages         []Message                       `json:"messages"`
	RawAnswers       map[script.Node]string          `json:"raw_answers"`
	ExtractedAnswers map[script.Node]json.RawMessage `json:"extracted_answers"`
	Flags            script.Flags                    `json:"flags"`
	CollectedEmail   string                          `json:"collected_email,omitempty"`
	EmailDeclined    bool                            `json:"email_declined,omitempty"`
	ClarifyStreak    int                             `json:"clarify_streak,omitempty"`
	Complete         bool                            `json:"complete"`
	CreatedAt        time.Time                       `json:"created_at"`
	UpdatedAt        time.Time                       `json:"updated_at"`
}

// New initializes a fresh conversation at the root node.
func New(identity string) *State {
	now := time.Now().UTC()
	return &State{
		Identity:         identity,
		CurrentNode:      script.Root,
		RawAnswers:       make(map[script.Node]string),
		ExtractedAnswers: make(map[script.Node]json.RawMessage),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Append adds one transcript message.
func (s *State) Append(speaker Speaker, text string) {
	s.Messages = append(s.Messages, Message{Speaker: speaker, Text: text, At: time.Now().UTC()})
}

// RecordAnswer stores the raw utterance and its extracted value for the node
// that was just answered. Maps are re-created on demand so a State decoded
// from an old snapshot with nil maps stays usable.
func (s *State) RecordAnswer(n script.Node, raw string, extracted json.RawMessage) {
	if s.RawAnswers == nil {
		s.RawAnswers = make(map[script.Node]string)
	}
	if s.ExtractedAnswers == nil {
		s.ExtractedAnswers = make(map[script.Node]json.RawMessage)
	}
	s.RawAnswers[n] = raw
	s.ExtractedAnswers[n] = extracted
}

// maxIdentityLen caps sanitized identities so they stay usable as store keys
// and file names.
const maxIdentityLen = 64

// SanitizeIdentity collapses anything outside [a-zA-Z0-9] to underscores,
// caps the length, and maps empty input to "anonymous". The sanitized form
// is the sole key used by the state store and audit log.
func SanitizeIdentity(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxIdentityLen {
			break
		}
	}
	id := b.String()
	if strings.Trim(id, "_") == "" {
		return "anonymous"
	}
	return id
}
