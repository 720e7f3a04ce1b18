package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	v1 "shopchat/cmd/api/router/v1"
	cacheAdapter "shopchat/internal/infrastructure/cache/adapter"
	cport "shopchat/internal/infrastructure/cache/port"
	"shopchat/internal/infrastructure/database"
	queueAdapter "shopchat/internal/infrastructure/queue/adapter"
	qport "shopchat/internal/infrastructure/queue/port"
	"shopchat/internal/infrastructure/realtime"
	"shopchat/internal/infrastructure/security"
	"shopchat/internal/pkg/chat/application/task"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}
	tokens := security.NewJWTService(secret)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.NewPoolFromEnv(ctx)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := realtime.NewRegistry()

	// Redis is optional: without it the gateway still works on a single node
	// with local fanout and inline REST appends.
	var (
		fanout realtime.Broadcaster = registry
		cache  cport.Cache
		queue  qport.Client
	)
	if os.Getenv("REDIS_URL") != "" {
		rc, err := cacheAdapter.NewRedisAdapter()
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rc.Close()
		cache = rc
		fanout = startBridge(runCtx, rc.Client(), registry)
		queue = startQueue(runCtx, pool, fanout)
		if queue != nil {
			defer queue.Close()
		}
	} else {
		log.Printf("Warning: REDIS_URL not set; running without fanout bridge and queue")
	}

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	v1.RegisterRoutes(r, pool, tokens, cache, queue, registry, fanout)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting chat gateway on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func startBridge(ctx context.Context, client *redis.Client, registry *realtime.Registry) *realtime.RedisBridge {
	bridge := realtime.NewRedisBridge(client, registry)
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("fanout bridge stopped: %v", err)
		}
	}()
	return bridge
}

func startQueue(ctx context.Context, pool *pgxpool.Pool, fanout realtime.Broadcaster) qport.Client {
	client, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Printf("Warning: queue client unavailable, REST appends run inline: %v", err)
		return nil
	}

	srv, err := queueAdapter.NewAsynqServer()
	if err != nil {
		log.Printf("Warning: queue server unavailable: %v", err)
		return client
	}
	task.RegisterAppendMessageTask(srv, pool, fanout)
	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Printf("queue server stopped: %v", err)
		}
	}()
	return client
}
