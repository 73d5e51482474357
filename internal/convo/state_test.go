package convo

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/propline/coldcall/internal/script"
)

func TestNew_StartsAtRoot(t *testing.T) {
	s := New("alice")
	if s.CurrentNode != script.Root {
		t.Errorf("expected root node, got %s", s.CurrentNode)
	}
	if s.Complete {
		t.Error("new state must not be complete")
	}
	if len(s.Messages) != 0 {
		t.Errorf("expected empty transcript, got %d messages", len(s.Messages))
	}
}

func TestState_JSONRoundTrip(t *testing.T) {
	s := New("alice")
	s.Append(SpeakerSystem, "have you thought about selling?")
	s.Append(SpeakerUser, "yes definitely")
	s.RecordAnswer(script.NodeInitialInterest, "yes definitely", json.RawMessage(`{"value":true}`))
	s.Flags.InterestedInSelling = script.TriTrue
	s.CurrentNode = script.NodePriceRange
	s.CollectedEmail = "alice@example.com"
	s.ClarifyStreak = 2

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got State
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Identity != s.Identity {
		t.Errorf("identity mismatch: %q vs %q", got.Identity, s.Identity)
	}
	if got.CurrentNode != s.CurrentNode {
		t.Errorf("node mismatch: %s vs %s", got.CurrentNode, s.CurrentNode)
	}
	if got.Flags != s.Flags {
		t.Errorf("flags mismatch: %+v vs %+v", got.Flags, s.Flags)
	}
	if !reflect.DeepEqual(got.RawAnswers, s.RawAnswers) {
		t.Errorf("raw answers mismatch: %+v vs %+v", got.RawAnswers, s.RawAnswers)
	}
	if !reflect.DeepEqual(got.ExtractedAnswers, s.ExtractedAnswers) {
		t.Errorf("extracted answers mismatch: %+v vs %+v", got.ExtractedAnswers, s.ExtractedAnswers)
	}
	if len(got.Messages) != 2 || got.Messages[1].Text != "yes definitely" {
		t.Errorf("transcript mismatch: %+v", got.Messages)
	}
	if got.CollectedEmail != "alice@example.com" {
		t.Errorf("email mismatch: %q", got.CollectedEmail)
	}
	if got.ClarifyStreak != 2 {
		t.Errorf("clarify streak mismatch: %d", got.ClarifyStreak)
	}
}

func TestRecordAnswer_NilMaps(t *testing.T) {
	// A snapshot decoded from JSON may carry nil maps.
	var s State
	s.RecordAnswer(script.NodePriceRange, "about 300k", json.RawMessage(`{"min":300000,"max":300000}`))
	if s.RawAnswers[script.NodePriceRange] != "about 300k" {
		t.Error("raw answer not recorded")
	}
	if len(s.ExtractedAnswers) != 1 {
		t.Error("extracted answer not recorded")
	}
}

func TestSanitizeIdentity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"Alice Smith", "Alice_Smith"},
		{"+1 (555) 123-4567", "_1__555__123_4567"},
		{"bob@example.com", "bob_example_com"},
		{"", "anonymous"},
		{"___", "anonymous"},
		{"!!!", "anonymous"},
	}
	for _, tt := range tests {
		if got := SanitizeIdentity(tt.in); got != tt.want {
			t.Errorf("SanitizeIdentity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeIdentity_LengthCap(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "a"
	}
	got := SanitizeIdentity(long)
	if len(got) != 64 {
		t.Errorf("expected 64-char cap, got %d chars", len(got))
	}
}
