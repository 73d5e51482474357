// Package engine orchestrates one interview turn: load state, classify the
// utterance, clarify or advance, persist, audit.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/propline/coldcall/internal/audit"
	"github.com/propline/coldcall/internal/convo"
	"github.com/propline/coldcall/internal/extractor"
	"github.com/propline/coldcall/internal/hermes"
	"github.com/propline/coldcall/internal/script"
	"github.com/propline/coldcall/internal/store"
)

// StateStore is the durable per-identity conversation record.
type StateStore interface {
	Load(ctx context.Context, identity string) (*convo.State, error) // store.ErrNotFound when absent
	Save(ctx context.Context, state *convo.State) error
	Clear(ctx context.Context, identity string) error
}

// AuditSink receives one entry per processed turn. Sink failures are logged
// and never fail the turn.
type AuditSink interface {
	Append(ctx context.Context, e audit.Entry) error
}

// Publisher posts events to the bus. Nil disables publishing.
type Publisher interface {
	Publish(subject string, data any) error
}

// TerminalMessage is returned for any turn after the interview completed.
const TerminalMessage = "This conversation has ended — thanks again for your time!"

// fallbackClosing is used when the script is misconfigured and the computed
// next node has no question. The caller still gets a coherent goodbye.
const fallbackClosing = "Thank you so much for your time today. We'll be in touch soon!"

type Engine struct {
	store      StateStore
	extractor  *extractor.Extractor
	publisher  Publisher
	sinks      []AuditSink
	logger     *slog.Logger
	maxClarify int // consecutive unclear answers before wrapping up; 0 = unlimited

	mu     sync.Mutex
	active map[string]*convo.State // write-through cache over the store
}

func New(s StateStore, ext *extractor.Extractor, pub Publisher, maxClarify int, logger *slog.Logger, sinks ...AuditSink) *Engine {
	return &Engine{
		store:      s,
		extractor:  ext,
		publisher:  pub,
		sinks:      sinks,
		logger:     logger,
		maxClarify: maxClarify,
		active:     make(map[string]*convo.State),
	}
}

// Chat processes one turn for an identity and returns the outbound text:
// the next question, a clarification, or a closing message. Internal
// extraction failures never surface here; the only errors are persistence
// failures, returned before any state has been made durable.
func (e *Engine) Chat(ctx context.Context, identity, message string) (string, error) {
	id := convo.SanitizeIdentity(identity)

	state, err := e.load(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("load state: %w", err)
	}

	// First contact: greet with the root question, no extraction.
	if state == nil {
		return e.firstTurn(ctx, id, message)
	}

	if state.Complete {
		return TerminalMessage, nil
	}

	state.Append(convo.SpeakerUser, message)

	q, err := script.Lookup(state.CurrentNode)
	if err != nil {
		// Persisted node fell out of the script. Wrap up rather than loop.
		e.logger.Error("current node not in script, closing conversation",
			"identity", id,
			"node", state.CurrentNode,
			"error", err,
		)
		return e.wrapUp(ctx, id, state, message, fallbackClosing)
	}

	res := e.extractor.Extract(ctx, state.CurrentNode, message)
	if !res.Valid {
		return e.clarify(ctx, id, state, q, message, res)
	}
	return e.advance(ctx, id, state, q, message, res)
}

// Reset discards an identity's conversation. The next Chat starts fresh.
func (e *Engine) Reset(ctx context.Context, identity string) error {
	id := convo.SanitizeIdentity(identity)

	e.mu.Lock()
	delete(e.active, id)
	e.mu.Unlock()

	if err := e.store.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	e.logger.Info("conversation reset", "identity", id)
	return nil
}

func (e *Engine) firstTurn(ctx context.Context, id, message string) (string, error) {
	q, err := script.Lookup(script.Root)
	if err != nil {
		return "", fmt.Errorf("root node missing from script: %w", err)
	}

	state := convo.New(id)
	state.Append(convo.SpeakerUser, message)
	state.Append(convo.SpeakerSystem, q.Text)

	if err := e.persist(ctx, state); err != nil {
		return "", err
	}

	entry := audit.NewEntry(id)
	entry.Node = script.Root
	entry.RawAnswer = message
	entry.NextNode = script.Root
	entry.Response = q.Text
	e.audit(ctx, entry)

	e.publishTurn(state, script.Root, false)

	e.logger.Info("conversation started", "identity", id)
	return q.Text, nil
}

func (e *Engine) clarify(ctx context.Context, id string, state *convo.State, q script.Question, message string, res extractor.Result) (string, error) {
	state.ClarifyStreak++
	if e.maxClarify > 0 && state.ClarifyStreak >= e.maxClarify {
		e.logger.Warn("clarification limit reached, wrapping up",
			"identity", id,
			"node", state.CurrentNode,
			"streak", state.ClarifyStreak,
		)
		return e.wrapUp(ctx, id, state, message, fallbackClosing)
	}

	outbound := res.Clarification
	state.Append(convo.SpeakerSystem, outbound)

	if err := e.persist(ctx, state); err != nil {
		return "", err
	}

	entry := audit.NewEntry(id)
	entry.Node = state.CurrentNode
	entry.Question = q.Text
	entry.RawAnswer = message
	entry.Unclear = true
	entry.NextNode = state.CurrentNode
	entry.Response = outbound
	e.audit(ctx, entry)

	e.publishTurn(state, state.CurrentNode, true)

	e.logger.Info("clarifying",
		"identity", id,
		"node", state.CurrentNode,
		"streak", state.ClarifyStreak,
	)
	return outbound, nil
}

func (e *Engine) advance(ctx context.Context, id string, state *convo.State, q script.Question, message string, res extractor.Result) (string, error) {
	state.ClarifyStreak = 0
	answered := state.CurrentNode

	mergeFlags(state, answered, res.Value)

	extracted, err := json.Marshal(res.Value)
	if err != nil {
		extracted = nil
	}
	state.RecordAnswer(answered, message, extracted)

	next := script.Next(answered, state.Flags)
	nq, err := script.Lookup(next)
	if err != nil {
		e.logger.Error("computed next node not in script, closing conversation",
			"identity", id,
			"node", answered,
			"next", next,
			"error", err,
		)
		return e.wrapUp(ctx, id, state, message, fallbackClosing)
	}

	state.CurrentNode = next
	outbound := nq.Text
	if script.Terminal(next) {
		state.Complete = true
	}
	state.Append(convo.SpeakerSystem, outbound)

	if err := e.persist(ctx, state); err != nil {
		return "", err
	}

	entry := audit.NewEntry(id)
	entry.Node = answered
	entry.Question = q.Text
	entry.RawAnswer = message
	entry.Extracted = extracted
	entry.NextNode = next
	entry.Response = outbound
	e.audit(ctx, entry)

	e.publishTurn(state, answered, false)
	if state.Complete {
		e.publishLead(state)
	}

	e.logger.Info("advanced",
		"identity", id,
		"from", answered,
		"to", next,
		"complete", state.Complete,
	)
	return outbound, nil
}

// wrapUp ends the conversation gracefully with a fixed goodbye. Used for
// configuration defects and for callers who hit the clarification limit.
func (e *Engine) wrapUp(ctx context.Context, id string, state *convo.State, message, outbound string) (string, error) {
	answered := state.CurrentNode
	state.CurrentNode = script.NodeEnd
	state.Complete = true
	state.Append(convo.SpeakerSystem, outbound)

	if err := e.persist(ctx, state); err != nil {
		return "", err
	}

	entry := audit.NewEntry(id)
	entry.Node = answered
	entry.RawAnswer = message
	entry.Unclear = true
	entry.NextNode = script.NodeEnd
	entry.Response = outbound
	e.audit(ctx, entry)

	e.publishTurn(state, answered, true)
	return outbound, nil
}

// load is the read-through cache in front of the store.
func (e *Engine) load(ctx context.Context, id string) (*convo.State, error) {
	e.mu.Lock()
	state, ok := e.active[id]
	e.mu.Unlock()
	if ok {
		return state, nil
	}

	state, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.active[id] = state
	e.mu.Unlock()
	return state, nil
}

// persist writes through: durable store first, cache only on success, so a
// failed save never leaves the cache ahead of the store.
func (e *Engine) persist(ctx context.Context, state *convo.State) error {
	state.UpdatedAt = time.Now().UTC()
	if err := e.store.Save(ctx, state); err != nil {
		// Drop the (mutated) cached copy so a retried turn re-reads the
		// last durable snapshot instead of compounding on a failed one.
		e.mu.Lock()
		delete(e.active, state.Identity)
		e.mu.Unlock()
		return fmt.Errorf("save state: %w", err)
	}

	e.mu.Lock()
	e.active[state.Identity] = state
	e.mu.Unlock()
	return nil
}

func (e *Engine) audit(ctx context.Context, entry audit.Entry) {
	for _, sink := range e.sinks {
		if err := sink.Append(ctx, entry); err != nil {
			e.logger.Error("audit write failed",
				"identity", entry.Identity,
				"node", entry.Node,
				"error", err,
			)
		}
	}
}

func (e *Engine) publishTurn(state *convo.State, node script.Node, unclear bool) {
	if e.publisher == nil {
		return
	}
	evt := hermes.TurnEvent{
		Identity:  state.Identity,
		Node:      string(node),
		NextNode:  string(state.CurrentNode),
		Unclear:   unclear,
		Complete:  state.Complete,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := e.publisher.Publish(hermes.SubjectTurnCompleted, evt); err != nil {
		e.logger.Warn("failed to publish turn event", "identity", state.Identity, "error", err)
	}
}

func (e *Engine) publishLead(state *convo.State) {
	if e.publisher == nil {
		return
	}

	answers := make(map[string]any, len(state.ExtractedAnswers))
	for node, raw := range state.ExtractedAnswers {
		answers[string(node)] = raw
	}
	rawAnswers := make(map[string]string, len(state.RawAnswers))
	for node, raw := range state.RawAnswers {
		rawAnswers[string(node)] = raw
	}

	evt := hermes.LeadEvent{
		LeadID:     uuid.New().String(),
		Identity:   state.Identity,
		Interested: state.Flags.InterestedInSelling == script.TriTrue,
		Email:      state.CollectedEmail,
		Answers:    answers,
		RawAnswers: rawAnswers,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := e.publisher.Publish(hermes.SubjectLeadCaptured, evt); err != nil {
		e.logger.Warn("failed to publish lead event", "identity", state.Identity, "error", err)
	}
}

// mergeFlags folds a valid extraction into the derived flag for its node.
// Nodes without a flag leave state untouched.
func mergeFlags(state *convo.State, node script.Node, value any) {
	switch node {
	case script.NodeInitialInterest:
		if v, ok := value.(extractor.BoolAnswer); ok {
			state.Flags.InterestedInSelling = script.Bool(v.Value)
		}
	case script.NodeOtherProperty:
		if v, ok := value.(extractor.BoolAnswer); ok {
			state.Flags.HasOtherProperty = script.Bool(v.Value)
		}
	case script.NodeOccupancy:
		if v, ok := value.(extractor.OccupancyAnswer); ok {
			state.Flags.IsTenantOccupied = script.Bool(v.Status == extractor.OccupancyTenant)
		}
	case script.NodeLeaseType:
		if v, ok := value.(extractor.LeaseAnswer); ok {
			state.Flags.IsAnnualLease = script.Bool(v.Term == extractor.LeaseAnnual)
		}
	case script.NodeCollectEmail:
		if v, ok := value.(extractor.EmailAnswer); ok {
			if v.Declined {
				state.EmailDeclined = true
			} else {
				state.CollectedEmail = v.Address
			}
		}
	}
}
