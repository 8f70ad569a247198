package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

type redisPublisherClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher broadcasts events on a pub/sub channel. Delivery is best
// effort: subscribers that are not connected miss the event.
type RedisPublisher struct {
	client  redisPublisherClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	for _, e := range events {
		data, err := encode(e)
		if err != nil {
			return err
		}
		if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
			return fmt.Errorf("redis publish %s: %w", e.Type, err)
		}
	}
	return nil
}

// Close is a no-op; the client is shared with the report cache and closed by its owner.
func (p *RedisPublisher) Close() error { return nil }
