package engine

import (
	"context"
	"encoding/json"

	"github.com/propline/coldcall/internal/hermes"
)

// HandleBotMessage is the NATS handler for crm.bot.message.in. The bot
// adapter forwards raw text in; the reply goes back out on the reply
// subject. Malformed events are logged and dropped.
func (e *Engine) HandleBotMessage(subject string, data []byte) {
	ctx := context.Background()

	var msg hermes.BotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		e.logger.Warn("failed to parse bot message", "error", err)
		return
	}
	if msg.Text == "" {
		return
	}

	reply, err := e.Chat(ctx, msg.UserID, msg.Text)
	if err != nil {
		e.logger.Error("bot turn failed", "user_id", msg.UserID, "error", err)
		return
	}

	if e.publisher == nil {
		return
	}
	out := hermes.BotMessage{UserID: msg.UserID, Text: reply}
	if err := e.publisher.Publish(hermes.SubjectBotMessageOut, out); err != nil {
		e.logger.Error("failed to publish bot reply", "user_id", msg.UserID, "error", err)
	}
}
