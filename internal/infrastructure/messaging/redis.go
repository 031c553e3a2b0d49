package messaging

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shopmesh/platform/internal/core/domain"
)

// redisClient is the part of *redis.Client used for fan-out.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisPublisher fans events out over Redis pub/sub on channel prefix+topic.
// Subscribers that are not connected miss the event.
type RedisPublisher struct {
	client redisClient
	prefix string
}

func NewRedisPublisher(client redisClient, channelPrefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: channelPrefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev domain.Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	channel := p.prefix + string(ev.Topic())
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close is a no-op: the client is shared and closed by its owner.
func (p *RedisPublisher) Close() error { return nil }
