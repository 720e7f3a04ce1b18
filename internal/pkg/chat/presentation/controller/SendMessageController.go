package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cport "shopchat/internal/infrastructure/cache/port"
	qport "shopchat/internal/infrastructure/queue/port"
	"shopchat/internal/infrastructure/realtime"
	"shopchat/internal/infrastructure/security"
	chat "shopchat/internal/pkg/chat/application/domain"
	"shopchat/internal/pkg/chat/application/task"
	"shopchat/internal/pkg/chat/application/usecase"
	repoAdapter "shopchat/internal/pkg/chat/persistence/repository/adapter"
	repository "shopchat/internal/pkg/chat/persistence/repository/port"
	userAdapter "shopchat/internal/repository/adapter"
)

// SendMessageController handles the REST write path into a conversation.
// With a queue client the append runs as a background task; without one it
// runs inline. Either way the persisted event fans out to joined members.
type SendMessageController struct {
	repo     repository.ChatRepository
	authUC   *usecase.AuthenticateUseCase
	appendUC *usecase.AppendMessageUseCase
	queue    qport.Client // nil means inline execution
	fanout   realtime.Broadcaster
}

func NewSendMessageController(pool *pgxpool.Pool, tokens *security.JWTService, cache cport.Cache, queue qport.Client, fanout realtime.Broadcaster) *SendMessageController {
	chatRepo := repoAdapter.NewPgChatRepository(pool)
	userRepo := userAdapter.NewPgUserRepository(pool)
	return &SendMessageController{
		repo:     chatRepo,
		authUC:   usecase.NewAuthenticateUseCase(tokens, userRepo, cache),
		appendUC: usecase.NewAppendMessageUseCase(chatRepo),
		queue:    queue,
		fanout:   fanout,
	}
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Handle returns the gin handler for POST /chat/:conversationId/messages.
func (ctl *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		user, err := ctl.authUC.Execute(ctx, bearerCredential(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		conversationID, err := strconv.ParseInt(c.Param("conversationId"), 10, 64)
		if err != nil || conversationID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if ctl.queue != nil {
			ctl.enqueue(c, ctx, conversationID, user.ID, req.Content)
			return
		}
		ctl.appendInline(c, ctx, conversationID, user.ID, req.Content)
	}
}

func (ctl *SendMessageController) enqueue(c *gin.Context, ctx context.Context, conversationID, senderID int64, content string) {
	payload, err := json.Marshal(task.AppendMessagePayload{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task"})
		return
	}

	id, err := ctl.queue.Enqueue(ctx,
		qport.Task{Type: task.AppendMessageTaskType, Payload: payload},
		qport.EnqueueOption{Queue: "chat", MaxRetry: 3},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue message"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": id})
}

func (ctl *SendMessageController) appendInline(c *gin.Context, ctx context.Context, conversationID, senderID int64, content string) {
	conv, err := ctl.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "conversation lookup failed"})
		return
	}

	msg, err := ctl.appendUC.Execute(ctx, usecase.AppendMessageInput{
		Conversation: *conv,
		SenderID:     senderID,
		Content:      content,
	})
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be empty"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist message"})
		return
	}

	if payload, err := json.Marshal(messageFrame{Type: "message", Message: toPayload(*msg)}); err == nil {
		ctl.fanout.Broadcast(conv.RoomID(), payload)
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"sender_id":       msg.SenderID,
		"content":         msg.Content,
		"created_at":      msg.CreatedAt,
	})
}
