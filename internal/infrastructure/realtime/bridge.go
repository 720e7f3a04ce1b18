package realtime

import (
	"context"
	"log"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const bridgeChannelPrefix = "chat.room."

// RedisBridge routes broadcasts through Redis pub/sub so that members
// connected to other gateway nodes receive them. Published payloads come back
// through the subscription loop, which delivers them to the local registry;
// a node running without the bridge broadcasts locally only.
type RedisBridge struct {
	rdb      *redis.Client
	registry *Registry
}

func NewRedisBridge(rdb *redis.Client, registry *Registry) *RedisBridge {
	return &RedisBridge{rdb: rdb, registry: registry}
}

var _ Broadcaster = (*RedisBridge)(nil)

// Run subscribes to all room channels and pumps incoming payloads into the
// local registry until ctx is canceled. The registry is purely transient
// routing, so a dropped subscription loses memberships only, never data.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.rdb.PSubscribe(ctx, bridgeChannelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			roomID := strings.TrimPrefix(msg.Channel, bridgeChannelPrefix)
			b.registry.Broadcast(roomID, []byte(msg.Payload))
		}
	}
}

// Broadcast publishes the payload for every node subscribed to the room,
// including this one. If the publish fails the payload is delivered to local
// members directly so a Redis hiccup degrades to single-node fanout.
func (b *RedisBridge) Broadcast(roomID string, payload []byte) int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := b.rdb.Publish(ctx, bridgeChannelPrefix+roomID, payload).Err(); err != nil {
		log.Printf("fanout publish failed, delivering locally: %v", err)
		return b.registry.Broadcast(roomID, payload)
	}
	return 0
}
