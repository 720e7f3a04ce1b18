package usecase

import (
	"context"
	"fmt"

	chat "shopchat/internal/pkg/chat/application/domain"
	repository "shopchat/internal/pkg/chat/persistence/repository/port"
)

// DefaultHistoryLimit bounds the one-time replay sent after a room join.
const DefaultHistoryLimit = 50

// GetHistoryUseCase returns the most recent messages of a conversation in
// replay order: the store reads newest-first, the result is oldest-first.
type GetHistoryUseCase struct {
	Repo repository.ChatRepository
}

func NewGetHistoryUseCase(repo repository.ChatRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{Repo: repo}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, conversationID int64, limit int) ([]chat.Message, error) {
	if conversationID == 0 {
		return nil, fmt.Errorf("conversation id is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Reverse the newest-first page into ascending (created_at, id) order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
