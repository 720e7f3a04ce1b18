package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cport "shopchat/internal/infrastructure/cache/port"
	qport "shopchat/internal/infrastructure/queue/port"
	"shopchat/internal/infrastructure/realtime"
	"shopchat/internal/infrastructure/security"
	"shopchat/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes registers the chat endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, tokens *security.JWTService, cache cport.Cache, queue qport.Client, registry *realtime.Registry, fanout realtime.Broadcaster) {
	socketCtl := controller.NewChatSocketController(pool, tokens, cache, registry, fanout)
	sendMsgCtl := controller.NewSendMessageController(pool, tokens, cache, queue, fanout)

	// GET /api/v1/chat/ws/:shopId -> websocket gateway into the buyer-shop
	// thread (optional buyer/product query parameters)
	g.GET("/chat/ws/:shopId", socketCtl.Handle())

	// POST /api/v1/chat/:conversationId/messages -> REST write path
	g.POST("/chat/:conversationId/messages", sendMsgCtl.Handle())
}
