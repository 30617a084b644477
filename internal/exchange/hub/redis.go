package hub

import (
	"context"
	"encoding/json"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel prefixes the per-chat channels, e.g. "tradehub:chat:<chat id>".
const DefaultChannel = "tradehub:chat"

// RedisBridge relays chat messages between instances over Redis pub/sub,
// one channel per chat.
type RedisBridge struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

func NewRedisBridge(client redis.UniversalClient, channel string, logger *zap.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		logger:  logger.Named("chat_bridge"),
	}
}

func (b *RedisBridge) Publish(ctx context.Context, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.ChannelFor(msg.ChatID), data).Err()
}

// ChannelFor names the Redis channel carrying one chat's messages.
func (b *RedisBridge) ChannelFor(chatID uuid.UUID) string {
	return b.channel + ":" + chatID.String()
}

// Run feeds messages from other instances into the hub until ctx ends. Our
// own publishes come back too and are dropped by the hub's id dedupe.
func (b *RedisBridge) Run(ctx context.Context, h *Hub) {
	pubsub := b.client.PSubscribe(ctx, b.channel+":*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var msg models.Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.logger.Error("Failed to parse chat message", zap.Error(err))
				continue
			}
			h.Deliver(msg)
		}
	}
}
