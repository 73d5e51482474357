//go:build integration

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/propline/coldcall/internal/audit"
	"github.com/propline/coldcall/internal/convo"
	"github.com/propline/coldcall/internal/script"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_SaveLoadClear(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	identity := "itest_" + convo.SanitizeIdentity(t.Name())
	t.Cleanup(func() { _ = s.Clear(ctx, identity) })

	state := convo.New(identity)
	state.Append(convo.SpeakerSystem, "interested in selling?")
	state.Append(convo.SpeakerUser, "yes")
	state.RecordAnswer(script.NodeInitialInterest, "yes", json.RawMessage(`{"value":true}`))
	state.Flags.InterestedInSelling = script.TriTrue
	state.CurrentNode = script.NodePriceRange

	if err := s.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx, identity)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.CurrentNode != script.NodePriceRange {
		t.Errorf("node = %s, want %s", got.CurrentNode, script.NodePriceRange)
	}
	if got.Flags.InterestedInSelling != script.TriTrue {
		t.Errorf("flag not preserved: %+v", got.Flags)
	}
	if len(got.Messages) != 2 {
		t.Errorf("transcript length = %d, want 2", len(got.Messages))
	}
	if got.RawAnswers[script.NodeInitialInterest] != "yes" {
		t.Errorf("raw answer not preserved")
	}

	// Save again to exercise the upsert path.
	got.CurrentNode = script.NodeBedroomsBathrooms
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got2, err := s.Load(ctx, identity)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if got2.CurrentNode != script.NodeBedroomsBathrooms {
		t.Errorf("upsert did not take: %s", got2.CurrentNode)
	}

	if err := s.Clear(ctx, identity); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Load(ctx, identity); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Clear, got %v", err)
	}

	// Clearing again is a no-op, not an error.
	if err := s.Clear(ctx, identity); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestIntegration_LoadMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Load(context.Background(), "coldcall_does_not_exist")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIntegration_AuditAppendAndList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	identity := "itest_audit_" + convo.SanitizeIdentity(t.Name())

	e := audit.NewEntry(identity)
	e.Node = script.NodeInitialInterest
	e.Question = "interested in selling?"
	e.RawAnswer = "yes definitely"
	e.Extracted = json.RawMessage(`{"value":true}`)
	e.NextNode = script.NodePriceRange
	e.Response = "what price range?"

	if err := s.Append(ctx, e); err != nil {
		t.Fatalf("Append: %v", err)
	}

	unclear := audit.NewEntry(identity)
	unclear.Node = script.NodePriceRange
	unclear.Question = "what price range?"
	unclear.RawAnswer = "mmm"
	unclear.Unclear = true
	unclear.NextNode = script.NodePriceRange
	unclear.Response = "could you give me a rough range?"

	if err := s.Append(ctx, unclear); err != nil {
		t.Fatalf("Append unclear: %v", err)
	}

	entries, err := s.ListAudit(ctx, identity, 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != e.ID {
		t.Errorf("entry ID mismatch")
	}
	if entries[0].NextNode != script.NodePriceRange {
		t.Errorf("next node = %s", entries[0].NextNode)
	}
	if entries[0].Unclear || !entries[1].Unclear {
		t.Errorf("unclear flags = %v, %v", entries[0].Unclear, entries[1].Unclear)
	}
}
