package events

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/users/internal/users/store"
)

// LogPublisher writes each record to a slog.Logger. It is the default when
// no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, records []store.OutboxRecord) error {
	for _, rec := range records {
		p.logger.LogAttrs(ctx, slog.LevelInfo, "domain event",
			slog.String("event_id", rec.ID),
			slog.String("event_type", rec.EventType),
			slog.String("aggregate_id", rec.AggregateID),
			slog.Time("occurred_at", rec.OccurredAt),
			slog.String("payload", string(rec.Payload)),
		)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
