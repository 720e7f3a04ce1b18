package chat

import (
	"strings"
	"time"
)

// Message is an immutable log entry in a conversation. Within a conversation
// messages are totally ordered by (CreatedAt, ID) ascending; the store assigns
// the ID on insert and it doubles as the tie-break.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Content        string
	CreatedAt      time.Time
}

// NewMessage normalizes and validates a message before persistence. Content
// is trimmed; whitespace-only content is rejected with ErrEmptyMessage.
func NewMessage(conversationID, senderID int64, content string) (*Message, error) {
	if conversationID == 0 || senderID == 0 {
		return nil, ErrConversationNotFound
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
