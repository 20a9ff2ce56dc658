package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/users/internal/users/store"
)

// MaxStreamLength caps the stream with approximate trimming.
const MaxStreamLength = 100_000

// RedisPublisher appends records to a Redis stream with XADD.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisPublisher connects to addr and pings it before returning.
func NewRedisPublisher(ctx context.Context, addr, stream string) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("events: redis ping %s: %w", addr, err)
	}
	return NewRedisPublisherFromClient(client, stream), nil
}

func NewRedisPublisherFromClient(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

// Publish adds the batch in a single MULTI/EXEC so it lands together.
func (p *RedisPublisher) Publish(ctx context.Context, records []store.OutboxRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := p.client.TxPipeline()
	for _, rec := range records {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: MaxStreamLength,
			Approx: true,
			Values: map[string]any{
				"id":           rec.ID,
				"type":         rec.EventType,
				"aggregate_id": rec.AggregateID,
				"occurred_at":  rec.OccurredAt.UTC().Format(time.RFC3339Nano),
				"payload":      string(rec.Payload),
			},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("events: redis xadd: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.client.Close() }
