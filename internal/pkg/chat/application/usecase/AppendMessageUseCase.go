package usecase

import (
	"context"
	"fmt"

	chat "shopchat/internal/pkg/chat/application/domain"
	repository "shopchat/internal/pkg/chat/persistence/repository/port"
)

// AppendMessageInput carries a validated conversation plus the raw inbound
// content. Callers load the conversation once (the socket session holds it
// for its whole lifetime) so the append itself costs a single store call.
type AppendMessageInput struct {
	Conversation chat.Conversation
	SenderID     int64
	Content      string
}

// AppendMessageUseCase persists one message with a server-assigned id and
// timestamp. Authorization is enforced per message, not just at join time.
type AppendMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewAppendMessageUseCase(repo repository.ChatRepository) *AppendMessageUseCase {
	return &AppendMessageUseCase{Repo: repo}
}

// Execute trims and validates content, then appends. chat.ErrEmptyMessage
// means nothing was stored; callers treat it as a silent no-op.
func (uc *AppendMessageUseCase) Execute(ctx context.Context, in AppendMessageInput) (*chat.Message, error) {
	if !in.Conversation.HasParticipant(in.SenderID) {
		return nil, chat.ErrNotParticipant
	}

	msg, err := chat.NewMessage(in.Conversation.ID, in.SenderID, in.Content)
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id
	return msg, nil
}
