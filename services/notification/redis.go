package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"servicely/models"

	"github.com/go-redis/redis/v8"
)

// RedisNotifier publishes events as JSON for the live connection registry to relay.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, event models.Event) error {
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notification: marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, Channel(event.Recipient), payload).Err(); err != nil {
		return fmt.Errorf("notification: publish %s: %w", event.Type, err)
	}
	return nil
}
