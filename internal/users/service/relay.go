package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/users/internal/users/metrics"
	"github.com/aussiebroadwan/users/internal/users/store"
)

// Publisher delivers outbox records to a transport. Delivery is at least
// once: a batch may be republished if marking it fails.
type Publisher interface {
	Publish(ctx context.Context, records []store.OutboxRecord) error
}

// OutboxRelay periodically drains the outbox into a Publisher and purges
// delivered records once they are older than Retention.
type OutboxRelay struct {
	Store     store.Store
	Publisher Publisher
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Interval  time.Duration
	BatchSize int
	Retention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewOutboxRelay fills in defaults for zero settings.
func NewOutboxRelay(st store.Store, pub Publisher, logger *slog.Logger, m *metrics.Metrics) *OutboxRelay {
	return &OutboxRelay{
		Store:     st,
		Publisher: pub,
		Logger:    logger,
		Metrics:   m,
		Interval:  2 * time.Second,
		BatchSize: 100,
		Retention: 7 * 24 * time.Hour,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the relay in the background until Stop is called.
func (r *OutboxRelay) Start() {
	go r.run()
	r.Logger.Info("outbox relay started", "interval", r.Interval, "batch", r.BatchSize)
}

// Stop waits for an in-flight pass to finish.
func (r *OutboxRelay) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.Logger.Info("outbox relay stopped")
}

func (r *OutboxRelay) run() {
	defer close(r.doneCh)

	interval := r.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	r.tick(ctx)
	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-r.stopCh:
			return
		}
	}
}

func (r *OutboxRelay) tick(ctx context.Context) {
	if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
		r.Logger.Error("outbox publish failed", "error", err)
	}
	if err := r.purge(ctx); err != nil && ctx.Err() == nil {
		r.Logger.Error("outbox purge failed", "error", err)
	}
}

// Flush publishes pending records batch by batch until the outbox is empty
// or a publish fails. It returns the number of records delivered.
func (r *OutboxRelay) Flush(ctx context.Context) (int, error) {
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	total := 0
	for {
		pending, err := r.Store.Outbox().ListPending(ctx, limit)
		if err != nil {
			return total, err
		}
		if len(pending) == 0 {
			return total, nil
		}

		if err := r.Publisher.Publish(ctx, pending); err != nil {
			r.Metrics.OutboxFailed()
			return total, err
		}

		ids := make([]string, len(pending))
		for i, rec := range pending {
			ids[i] = rec.ID
		}
		if err := r.Store.Outbox().MarkPublished(ctx, ids, time.Now().UTC()); err != nil {
			return total, err
		}

		total += len(pending)
		r.Metrics.OutboxPublished(len(pending))
		r.Logger.Debug("outbox batch published", "count", len(pending))

		if len(pending) < limit {
			return total, nil
		}
	}
}

func (r *OutboxRelay) purge(ctx context.Context) error {
	if r.Retention <= 0 {
		return nil
	}
	n, err := r.Store.Outbox().DeletePublishedBefore(ctx, time.Now().UTC().Add(-r.Retention))
	if err != nil {
		return err
	}
	if n > 0 {
		r.Logger.Info("purged published outbox records", "count", n)
	}
	return nil
}
