package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"historando-backend/internal/models"
)

// Notifier publishes per-user events over Redis; the websocket hub
// subscribes to the same channels and forwards to connected clients.
type Notifier struct {
	redis *redis.Client
}

func NewNotifier(redisClient *redis.Client) *Notifier {
	return &Notifier{redis: redisClient}
}

func (n *Notifier) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if n == nil || n.redis == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	// Fire and forget: a lost notification must never fail the operation.
	n.redis.Publish(ctx, "user_updates:"+userID.String(), data)
}
