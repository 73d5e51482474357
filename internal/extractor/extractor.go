// Package extractor turns free-text utterances into typed answers per a
// node's contract. Two interchangeable strategies sit behind one Extract
// call: an LLM classifier when a client is configured, and a deterministic
// keyword/regex fallback that also catches every LLM failure.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/propline/coldcall/internal/anthropic"
	"github.com/propline/coldcall/internal/script"
)

type Extractor struct {
	llm    *anthropic.Client // nil means heuristics only
	logger *slog.Logger
}

func New(llm *anthropic.Client, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, logger: logger}
}

// llmEnvelope is the machine-checkable response shape the classifier is
// prompted to return.
type llmEnvelope struct {
	Valid bool            `json:"valid"`
	Value json.RawMessage `json:"value"`
}

// Extract classifies an utterance against the node's contract. It never
// returns an error and never mutates conversation state: backend failures
// and malformed output all degrade to the deterministic fallback, and if
// that cannot classify either, the result is an invalid Result carrying a
// clarification prompt.
func (e *Extractor) Extract(ctx context.Context, node script.Node, utterance string) Result {
	q, err := script.Lookup(node)
	if err != nil {
		e.logger.Error("extraction against unregistered node", "node", node, "error", err)
		return Result{Valid: false, Clarification: GenericClarification}
	}

	if e.llm != nil {
		if res, ok := e.extractLLM(ctx, node, q, utterance); ok {
			return res
		}
		// Fall through to heuristics on any LLM-side failure.
	}

	return Fallback(q, utterance)
}

func (e *Extractor) extractLLM(ctx context.Context, node script.Node, q script.Question, utterance string) (Result, bool) {
	instruction, ok := contractInstructions[q.Contract]
	if !ok {
		return Result{}, false
	}
	system := fmt.Sprintf(systemPromptTemplate, q.Text, instruction)

	raw, err := e.llm.Complete(ctx, system, []anthropic.Message{
		{Role: "user", Content: utterance},
	}, 256)
	if err != nil {
		e.logger.Warn("llm classification failed, using fallback",
			"node", node,
			"error", err,
		)
		return Result{}, false
	}

	var env llmEnvelope
	if err := json.Unmarshal([]byte(stripFences(raw)), &env); err != nil {
		e.logger.Warn("unparsable llm response, using fallback",
			"node", node,
			"raw", raw,
		)
		return Result{}, false
	}

	if !env.Valid {
		// The classifier read the reply and found no answer. Let the
		// deterministic rules have the final say before clarifying.
		return Result{}, false
	}

	value, err := decodeValue(q.Contract, env.Value)
	if err != nil {
		e.logger.Warn("llm response failed contract validation, using fallback",
			"node", node,
			"error", err,
		)
		return Result{}, false
	}

	return Result{Valid: true, Value: value}, true
}

// decodeValue decodes and validates a classifier value against the contract.
func decodeValue(c script.Contract, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing value")
	}
	switch c {
	case script.ContractBoolean:
		var v BoolAnswer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case script.ContractScale:
		var v ScaleAnswer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Score < 1 || v.Score > 10 {
			return nil, fmt.Errorf("score %d out of range", v.Score)
		}
		return v, nil
	case script.ContractPrice:
		var v PriceRange
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if !v.NotSure && (v.Min < 0 || v.Max < v.Min) {
			return nil, fmt.Errorf("bad range %d-%d", v.Min, v.Max)
		}
		return v, nil
	case script.ContractRooms:
		var v Rooms
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Bedrooms < 0 || v.Bathrooms < 0 {
			return nil, fmt.Errorf("negative room count")
		}
		return v, nil
	case script.ContractOccupancy:
		var v OccupancyAnswer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Status != OccupancyOwner && v.Status != OccupancyTenant {
			return nil, fmt.Errorf("unknown occupancy %q", v.Status)
		}
		return v, nil
	case script.ContractLease:
		var v LeaseAnswer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Term != LeaseAnnual && v.Term != LeaseMonthly {
			return nil, fmt.Errorf("unknown lease term %q", v.Term)
		}
		return v, nil
	case script.ContractTimeframe:
		var v TimeframeAnswer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if strings.TrimSpace(v.Text) == "" {
			return nil, fmt.Errorf("empty timeframe")
		}
		return v, nil
	case script.ContractEmail:
		var v EmailAnswer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if !v.Declined && !emailRe.MatchString(v.Address) {
			return nil, fmt.Errorf("malformed address %q", v.Address)
		}
		return v, nil
	case script.ContractFreeText:
		var v FreeTextAnswer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if len(strings.TrimSpace(v.Text)) <= 2 {
			return nil, fmt.Errorf("trivial text")
		}
		return v, nil
	default:
		return nil, fmt.Errorf("contract %q takes no answer", c)
	}
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
