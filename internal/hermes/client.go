// Package hermes is the NATS client used for inbound bot messages and
// outbound CRM events.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects coldcall publishes and consumes.
const (
	SubjectTurnCompleted = "crm.coldcall.turn.completed"
	SubjectLeadCaptured  = "crm.coldcall.lead.captured"
	SubjectBotMessageIn  = "crm.bot.message.in"
	SubjectBotMessageOut = "crm.bot.message.out"
)

// TurnEvent is published after every processed turn.
type TurnEvent struct {
	Identity  string `json:"identity"`
	Node      string `json:"node"`
	NextNode  string `json:"next_node"`
	Unclear   bool   `json:"unclear"`
	Complete  bool   `json:"complete"`
	Timestamp string `json:"timestamp"`
}

// LeadEvent is published once when an interview completes, carrying the
// collected answers for downstream CRM intake.
type LeadEvent struct {
	LeadID     string            `json:"lead_id"`
	Identity   string            `json:"identity"`
	Interested bool              `json:"interested"`
	Email      string            `json:"email,omitempty"`
	Answers    map[string]any    `json:"answers"`
	RawAnswers map[string]string `json:"raw_answers"`
	Timestamp  string            `json:"timestamp"`
}

// BotMessage is the payload for inbound and outbound bot text.
type BotMessage struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
