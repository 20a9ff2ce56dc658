// Package events delivers outbox records to downstream transports.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/users/internal/users/store"
)

// Publisher is implemented by every transport. Publish either delivers the
// whole batch or returns an error, in which case the relay retries it.
type Publisher interface {
	Publish(ctx context.Context, records []store.OutboxRecord) error
	Close() error
}

const (
	BackendLog   = "log"
	BackendRedis = "redis"
	BackendAMQP  = "amqp"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	RedisAddr   string
	RedisStream string

	AMQPURL      string
	AMQPExchange string
}

// New builds the publisher named by cfg.Backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Publisher, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendLog:
		return NewLogPublisher(logger), nil
	case BackendRedis:
		return NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisStream)
	case BackendAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	default:
		return nil, fmt.Errorf("events: unknown backend %q", cfg.Backend)
	}
}
