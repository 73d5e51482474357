package extractor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/propline/coldcall/internal/anthropic"
	"github.com/propline/coldcall/internal/script"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func llmServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
			"stop_reason": "end_turn",
		})
	}))
}

func TestExtract_HeuristicsOnly(t *testing.T) {
	// No LLM client configured: the deterministic strategy handles the turn.
	ext := New(nil, discardLogger())

	res := ext.Extract(context.Background(), script.NodeInitialInterest, "yes definitely")
	if !res.Valid {
		t.Fatalf("expected valid result, got %+v", res)
	}
	if !res.Value.(BoolAnswer).Value {
		t.Error("expected positive classification")
	}

	res = ext.Extract(context.Background(), script.NodeInitialInterest, "mmmblah")
	if res.Valid {
		t.Fatalf("expected invalid result, got %+v", res)
	}
	if res.Clarification == "" {
		t.Error("invalid result must carry a clarification")
	}
}

func TestExtract_LLMSuccess(t *testing.T) {
	server := llmServer(t, `{"valid": true, "value": {"value": false}}`)
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	ext := New(llm, discardLogger())

	// The heuristics cannot read this utterance; the LLM verdict carries it.
	res := ext.Extract(context.Background(), script.NodeInitialInterest, "ugh, after last winter? hard pass")
	if !res.Valid {
		t.Fatalf("expected valid result, got %+v", res)
	}
	if res.Value.(BoolAnswer).Value {
		t.Error("expected the LLM's negative classification")
	}
}

func TestExtract_LLMGarbageFallsBack(t *testing.T) {
	server := llmServer(t, "I am not JSON at all")
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	ext := New(llm, discardLogger())

	res := ext.Extract(context.Background(), script.NodeInitialInterest, "yes")
	if !res.Valid || !res.Value.(BoolAnswer).Value {
		t.Fatalf("expected heuristic fallback to classify, got %+v", res)
	}
}

func TestExtract_LLMFencedJSONAccepted(t *testing.T) {
	server := llmServer(t, "```json\n{\"valid\": true, \"value\": {\"score\": 9}}\n```")
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	ext := New(llm, discardLogger())

	res := ext.Extract(context.Background(), script.NodePropertyCondition, "pretty nice place")
	if !res.Valid {
		t.Fatalf("expected valid result, got %+v", res)
	}
	if got := res.Value.(ScaleAnswer).Score; got != 9 {
		t.Errorf("score = %d, want 9", got)
	}
}

func TestExtract_LLMContractViolationFallsBack(t *testing.T) {
	server := llmServer(t, `{"valid": true, "value": {"score": 42}}`)
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	ext := New(llm, discardLogger())

	res := ext.Extract(context.Background(), script.NodePropertyCondition, "solid 7")
	if !res.Valid {
		t.Fatalf("expected heuristic fallback, got %+v", res)
	}
	if got := res.Value.(ScaleAnswer).Score; got != 7 {
		t.Errorf("score = %d, want heuristic 7", got)
	}
}

func TestExtract_LLMUnclearDefersToHeuristics(t *testing.T) {
	server := llmServer(t, `{"valid": false}`)
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	ext := New(llm, discardLogger())

	res := ext.Extract(context.Background(), script.NodeInitialInterest, "yes definitely")
	if !res.Valid || !res.Value.(BoolAnswer).Value {
		t.Fatalf("expected deterministic rules to get the final say, got %+v", res)
	}
}

func TestExtract_BackendErrorDowngradesToClarification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	ext := New(llm, discardLogger())

	// Backend down and the utterance defeats the heuristics too: the caller
	// gets a clarification, never an error.
	res := ext.Extract(context.Background(), script.NodeInitialInterest, "mmmblah")
	if res.Valid {
		t.Fatalf("expected invalid result, got %+v", res)
	}
	if res.Clarification == "" {
		t.Error("expected a clarification prompt")
	}
}

func TestExtract_UnregisteredNode(t *testing.T) {
	ext := New(nil, discardLogger())
	res := ext.Extract(context.Background(), script.Node("mystery"), "hello")
	if res.Valid {
		t.Fatal("expected invalid result for unregistered node")
	}
	if res.Clarification != GenericClarification {
		t.Errorf("expected generic clarification, got %q", res.Clarification)
	}
}
