package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	cport "shopchat/internal/infrastructure/cache/port"
	"shopchat/internal/infrastructure/realtime"
	"shopchat/internal/infrastructure/security"
	chat "shopchat/internal/pkg/chat/application/domain"
	"shopchat/internal/pkg/chat/application/usecase"
	repoAdapter "shopchat/internal/pkg/chat/persistence/repository/adapter"
	userAdapter "shopchat/internal/repository/adapter"
)

// ChatSocketController owns the websocket gateway endpoint. Each connection
// walks Connecting -> Authenticated -> Joined -> Closed: credential check,
// conversation resolve, participant check, room join with a one-time history
// replay, then the frame loop. Closed is reachable from every state and
// always leaves the registry clean.
type ChatSocketController struct {
	registry  *realtime.Registry
	fanout    realtime.Broadcaster
	authUC    *usecase.AuthenticateUseCase
	resolveUC *usecase.ResolveConversationUseCase
	appendUC  *usecase.AppendMessageUseCase
	historyUC *usecase.GetHistoryUseCase
	opTimeout time.Duration
}

func NewChatSocketController(pool *pgxpool.Pool, tokens *security.JWTService, cache cport.Cache, registry *realtime.Registry, fanout realtime.Broadcaster) *ChatSocketController {
	chatRepo := repoAdapter.NewPgChatRepository(pool)
	userRepo := userAdapter.NewPgUserRepository(pool)
	return &ChatSocketController{
		registry:  registry,
		fanout:    fanout,
		authUC:    usecase.NewAuthenticateUseCase(tokens, userRepo, cache),
		resolveUC: usecase.NewResolveConversationUseCase(chatRepo, userRepo),
		appendUC:  usecase.NewAppendMessageUseCase(chatRepo),
		historyUC: usecase.NewGetHistoryUseCase(chatRepo),
		opTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Tokens gate access, not origins; the widget runs on several hosts.
		return true
	},
}

const (
	defaultReadTimeout = 60 * time.Second
	maxFrameBytes      = 1 << 20
)

// Handle upgrades the connection and runs the session to completion.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerCredential(c)

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.opTimeout)
		user, err := ctl.authUC.Execute(ctx, token)
		cancel()
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				closeSocket(ws, closeCodeServerError, "identity lookup failed")
			} else {
				closeSocket(ws, closeCodeAuthFailed, "authentication failed")
			}
			return
		}

		shopID, err := strconv.ParseInt(c.Param("shopId"), 10, 64)
		if err != nil || shopID <= 0 {
			closeSocket(ws, closeCodeForbidden, "unknown shop")
			return
		}

		in := usecase.ResolveConversationInput{
			UserID:    user.ID,
			ShopID:    shopID,
			BuyerID:   optionalID(c.Query("buyer")),
			ProductID: optionalID(c.Query("product")),
		}

		ctx, cancel = context.WithTimeout(c.Request.Context(), ctl.opTimeout)
		conv, err := ctl.resolveUC.Execute(ctx, in)
		cancel()
		switch {
		case err == nil:
		case errors.Is(err, chat.ErrShopNotFound):
			closeSocket(ws, closeCodeForbidden, "unknown shop")
			return
		default:
			closeSocket(ws, closeCodeServerError, "conversation resolve failed")
			return
		}

		if !conv.HasParticipant(user.ID) {
			// Authenticated but not a party to this thread: refuse before any
			// registry state exists.
			closeSocket(ws, closeCodeForbidden, "not a participant")
			return
		}

		conn := realtime.NewConnection(user.ID, ws)
		conn.Start()
		roomID := conv.RoomID()
		ctl.registry.Join(roomID, conn)
		defer func() {
			ctl.registry.Leave(roomID, conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		if !ctl.replayHistory(c, conn, conv.ID) {
			return
		}

		ctl.readFrames(c, ws, conn, *conv, user.ID)
	}
}

// replayHistory sends the single history frame due after a join.
func (ctl *ChatSocketController) replayHistory(c *gin.Context, conn *realtime.Connection, conversationID int64) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.opTimeout)
	defer cancel()

	msgs, err := ctl.historyUC.Execute(ctx, conversationID, usecase.DefaultHistoryLimit)
	if err != nil {
		conn.Close(closeCodeServerError, "history read failed")
		return false
	}

	payload, err := json.Marshal(newHistoryFrame(msgs))
	if err != nil {
		conn.Close(closeCodeServerError, "history encode failed")
		return false
	}
	return conn.Send(payload) == nil
}

// readFrames is the Joined-state loop: one append at most per inbound frame,
// then a room-wide broadcast of the canonical event.
func (ctl *ChatSocketController) readFrames(c *gin.Context, ws *websocket.Conn, conn *realtime.Connection, conv chat.Conversation, userID int64) {
	roomID := conv.RoomID()

	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			// Disconnect or transport failure; the deferred leave runs.
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Malformed input is dropped without a reply so a buggy client
			// doesn't turn into connection churn.
			continue
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.opTimeout)
		msg, err := ctl.appendUC.Execute(ctx, usecase.AppendMessageInput{
			Conversation: conv,
			SenderID:     userID,
			Content:      frame.Content,
		})
		cancel()
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				conn.Close(closeCodeServerError, "message append failed")
				return
			}
			// Empty content and other domain rejections are no-ops.
			continue
		}

		payload, err := json.Marshal(messageFrame{Type: "message", Message: toPayload(*msg)})
		if err != nil {
			continue
		}
		ctl.fanout.Broadcast(roomID, payload)
	}
}

// bearerCredential reads the token query parameter the chat widget sends,
// falling back to an Authorization header for non-browser clients.
func bearerCredential(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func optionalID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// closeSocket refuses a connection that never reached Joined.
func closeSocket(ws *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = ws.Close()
}
