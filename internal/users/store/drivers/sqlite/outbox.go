package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/store"
)

type outboxRepo struct {
	q querier
}

func (r *outboxRepo) Append(ctx context.Context, events ...domain.Event) error {
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("sqlite: encode %s: %w", e.EventType(), err)
		}

		_, err = r.q.ExecContext(ctx,
			`INSERT INTO outbox_events (id, aggregate_id, event_type, payload, occurred_at) VALUES (?, ?, ?, ?, ?)`,
			e.EventID(), e.AggregateID(), e.EventType(), string(payload), formatTime(e.OccurredAt()),
		)
		if err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *outboxRepo) ListPending(ctx context.Context, limit int) ([]store.OutboxRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, occurred_at, published_at
		   FROM outbox_events
		  WHERE published_at IS NULL
		  ORDER BY seq
		  LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.OutboxRecord
	for rows.Next() {
		var (
			rec         store.OutboxRecord
			payload     string
			occurredAt  string
			publishedAt sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.AggregateID, &rec.EventType, &payload, &occurredAt, &publishedAt); err != nil {
			return nil, err
		}
		rec.Payload = []byte(payload)
		if rec.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		if rec.PublishedAt, err = mapNullTimePtr(publishedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *outboxRepo) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, formatTime(at))
	for _, id := range ids {
		args = append(args, id)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	_, err := r.q.ExecContext(ctx,
		`UPDATE outbox_events SET published_at = ? WHERE published_at IS NULL AND id IN (`+placeholders+`)`,
		args...)
	return err
}

func (r *outboxRepo) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM outbox_events WHERE published_at IS NOT NULL AND published_at < ?`,
		formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
