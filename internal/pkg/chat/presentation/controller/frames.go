package controller

import (
	"time"

	chat "shopchat/internal/pkg/chat/application/domain"
)

// Wire format shared by the socket and REST surfaces. Clients branch on the
// close code: refresh the credential on 4401, show "no access" on 4403,
// retry on 4500.
const (
	closeCodeAuthFailed  = 4401
	closeCodeForbidden   = 4403
	closeCodeServerError = 4500
)

// inboundFrame is the single client->server frame shape. A missing type
// defaults to "message"; unrecognized types are handled the same way so old
// clients keep working after the schema grows.
type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type messagePayload struct {
	ID        int64     `json:"id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// historyFrame is sent exactly once after a join, oldest message first.
type historyFrame struct {
	Type     string           `json:"type"`
	Messages []messagePayload `json:"messages"`
}

// messageFrame carries the canonical persisted representation so every
// participant, the sender included, converges on one id and timestamp.
type messageFrame struct {
	Type    string         `json:"type"`
	Message messagePayload `json:"message"`
}

func toPayload(msg chat.Message) messagePayload {
	return messagePayload{
		ID:        msg.ID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func newHistoryFrame(msgs []chat.Message) historyFrame {
	payloads := make([]messagePayload, 0, len(msgs))
	for _, m := range msgs {
		payloads = append(payloads, toPayload(m))
	}
	return historyFrame{Type: "history", Messages: payloads}
}
