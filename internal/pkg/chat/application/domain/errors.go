package chat

import "errors"

// Domain-level errors for chat behaviors
var (
	ErrShopNotFound         = errors.New("chat: shop does not exist")
	ErrConversationNotFound = errors.New("chat: conversation does not exist")
	ErrNotParticipant       = errors.New("chat: user is not a participant in the conversation")
	ErrEmptyMessage         = errors.New("chat: empty message content")
)
