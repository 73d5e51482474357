package engine

import (
	"encoding/json"
	"testing"

	"github.com/propline/coldcall/internal/hermes"
	"github.com/propline/coldcall/internal/script"
)

func TestHandleBotMessage_RepliesOnOutSubject(t *testing.T) {
	e, _, _, mp := newTestEngine(t, 0)

	payload, _ := json.Marshal(hermes.BotMessage{UserID: "+15551234567", Text: "hello"})
	e.HandleBotMessage(hermes.SubjectBotMessageIn, payload)

	out := mp.bySubject(hermes.SubjectBotMessageOut)
	if len(out) != 1 {
		t.Fatalf("expected 1 outbound bot message, got %d", len(out))
	}
	msg := out[0].(hermes.BotMessage)
	if msg.UserID != "+15551234567" {
		t.Errorf("user id = %q", msg.UserID)
	}
	root, err := script.Lookup(script.Root)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Text != root.Text {
		t.Errorf("reply = %q, want opening question", msg.Text)
	}
}

func TestHandleBotMessage_MalformedPayloadDropped(t *testing.T) {
	e, _, _, mp := newTestEngine(t, 0)

	e.HandleBotMessage(hermes.SubjectBotMessageIn, []byte("not json"))
	e.HandleBotMessage(hermes.SubjectBotMessageIn, []byte(`{"user_id":"x","text":""}`))

	if out := mp.bySubject(hermes.SubjectBotMessageOut); len(out) != 0 {
		t.Fatalf("expected no outbound messages, got %d", len(out))
	}
}
