package task

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "shopchat/internal/infrastructure/queue/port"
	"shopchat/internal/infrastructure/realtime"
	chat "shopchat/internal/pkg/chat/application/domain"
	"shopchat/internal/pkg/chat/application/usecase"
	repoAdapter "shopchat/internal/pkg/chat/persistence/repository/adapter"
)

// AppendMessageTaskType is the queue task name for the REST write path.
const AppendMessageTaskType = "chat:append_message"

// AppendMessagePayload is the JSON payload transported via the queue, kept
// decoupled from domain types.
type AppendMessagePayload struct {
	ConversationID int64  `json:"conversation_id"`
	SenderID       int64  `json:"sender_id"`
	Content        string `json:"content"`
}

// RegisterAppendMessageTask binds the append handler to the queue server.
// The worker persists through the same use case as the socket dispatcher and
// then fans the canonical event out to joined members.
func RegisterAppendMessageTask(srv qport.Server, pool *pgxpool.Pool, fanout realtime.Broadcaster) {
	repo := repoAdapter.NewPgChatRepository(pool)
	uc := usecase.NewAppendMessageUseCase(repo)

	srv.Register(AppendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p AppendMessagePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// Malformed payload will never succeed; drop it.
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		conv, err := repo.GetConversation(ctx, p.ConversationID)
		if err != nil {
			if errors.Is(err, chat.ErrConversationNotFound) {
				log.Printf("append task dropped: conversation %d not found", p.ConversationID)
				return nil
			}
			return err
		}

		msg, err := uc.Execute(ctx, usecase.AppendMessageInput{
			Conversation: *conv,
			SenderID:     p.SenderID,
			Content:      p.Content,
		})
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				return err // retryable
			}
			// Domain rejections (empty content, non-participant) are final.
			log.Printf("append task dropped: %v", err)
			return nil
		}

		event := struct {
			Type    string `json:"type"`
			Message struct {
				ID        int64     `json:"id"`
				SenderID  int64     `json:"sender_id"`
				Content   string    `json:"content"`
				CreatedAt time.Time `json:"created_at"`
			} `json:"message"`
		}{Type: "message"}
		event.Message.ID = msg.ID
		event.Message.SenderID = msg.SenderID
		event.Message.Content = msg.Content
		event.Message.CreatedAt = msg.CreatedAt

		payload, err := json.Marshal(event)
		if err != nil {
			return nil
		}
		fanout.Broadcast(conv.RoomID(), payload)
		return nil
	})
}
