package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "shopchat/internal/pkg/chat/application/domain"
	repository "shopchat/internal/pkg/chat/persistence/repository/port"
	userrepo "shopchat/internal/repository/port"
)

// ResolveConversationInput maps a connection's target to a conversation key.
// BuyerID and ProductID are the optional query parameters from the handshake.
type ResolveConversationInput struct {
	UserID    int64
	ShopID    int64
	BuyerID   *int64
	ProductID *int64
}

// ResolveConversationUseCase maps (buyer, shop, product) to a durable
// conversation, creating it on first contact. The caller still has to run the
// participant check on the result before joining a room.
type ResolveConversationUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserRepository
}

func NewResolveConversationUseCase(repo repository.ChatRepository, users userrepo.UserRepository) *ResolveConversationUseCase {
	return &ResolveConversationUseCase{Repo: repo, Users: users}
}

// Execute confirms the shop exists, then performs a race-safe get-or-create:
// two simultaneous first-time connections for the same tuple converge on
// exactly one stored conversation.
func (uc *ResolveConversationUseCase) Execute(ctx context.Context, in ResolveConversationInput) (*chat.Conversation, error) {
	if in.UserID == 0 || in.ShopID == 0 {
		return nil, fmt.Errorf("user id and shop id are required")
	}

	if _, err := uc.Users.FindByID(ctx, in.ShopID); err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, chat.ErrShopNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// An explicit buyer parameter overrides the connecting user's identity as
	// the thread's buyer regardless of the user's type. Kept as observed in
	// production; flagged for re-review rather than silently tightened.
	buyerID := in.UserID
	if in.BuyerID != nil {
		buyerID = *in.BuyerID
	}

	conv, err := uc.Repo.GetOrCreateConversation(ctx, chat.Conversation{
		BuyerID:   buyerID,
		ShopID:    in.ShopID,
		ProductID: in.ProductID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
