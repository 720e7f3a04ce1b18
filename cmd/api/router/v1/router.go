package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cport "shopchat/internal/infrastructure/cache/port"
	qport "shopchat/internal/infrastructure/queue/port"
	"shopchat/internal/infrastructure/realtime"
	"shopchat/internal/infrastructure/security"
	httpHandler "shopchat/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1.
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, tokens *security.JWTService, cache cport.Cache, queue qport.Client, registry *realtime.Registry, fanout realtime.Broadcaster) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, tokens, cache, queue, registry, fanout)
}
