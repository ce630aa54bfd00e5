// Package events distributes crisis flag events: a Redis channel for other
// services and an in-process broker feeding the dashboard event stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mindhaven/bastion/pkg/crisis"
)

// FlagChannel is the Redis pub/sub channel carrying flag events.
const FlagChannel = "bastion.crisis.flags"

// RedisPublisher broadcasts flag events over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisPublisher wraps an existing Redis client. log may be nil.
func NewRedisPublisher(client *redis.Client, log *slog.Logger) *RedisPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &RedisPublisher{client: client, log: log}
}

// PublishFlagCreated serializes the event and publishes it. Subscribers are
// fire-and-forget; a channel with no listeners is not an error.
func (p *RedisPublisher) PublishFlagCreated(ctx context.Context, e crisis.FlagCreated) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: marshal flag event: %w", err)
	}
	if err := p.client.Publish(ctx, FlagChannel, payload).Err(); err != nil {
		return fmt.Errorf("events: publish flag event: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
