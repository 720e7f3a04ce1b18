package repository

import (
	"context"

	chat "shopchat/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the chat domain.
// The gateway is the only writer of conversations and messages; an external
// REST read-model consumes the same tables for thread listing.
type ChatRepository interface {
	// GetOrCreateConversation returns the conversation for the unique
	// (buyer, shop, product) key, inserting it first if absent. Concurrent
	// first contact for the same key must converge on exactly one row.
	GetOrCreateConversation(ctx context.Context, c chat.Conversation) (*chat.Conversation, error)

	// GetConversation returns chat.ErrConversationNotFound for unknown ids.
	GetConversation(ctx context.Context, id int64) (*chat.Conversation, error)

	// SaveMessage appends m and returns the store-assigned id. A successful
	// append never produces partial or duplicate rows.
	SaveMessage(ctx context.Context, m chat.Message) (int64, error)

	// GetMessagesByConversation returns the most recent limit messages
	// ordered by (created_at, id) descending.
	GetMessagesByConversation(ctx context.Context, conversationID int64, limit int) ([]chat.Message, error)
}
