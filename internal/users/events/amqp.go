package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aussiebroadwan/users/internal/users/store"
)

var ErrNotConfirmed = errors.New("events: broker did not confirm publish")

// AMQPPublisher sends each record to a durable topic exchange with the
// event type as routing key. Publisher confirms are enabled.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err == nil {
		err = ch.Confirm(false)
	}
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: amqp setup: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, records []store.OutboxRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	confirms := make([]*amqp.DeferredConfirmation, 0, len(records))
	for _, rec := range records {
		dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
			p.exchange,
			rec.EventType,
			false, // mandatory
			false, // immediate
			publishing(rec),
		)
		if err != nil {
			return fmt.Errorf("events: amqp publish %s: %w", rec.ID, err)
		}
		confirms = append(confirms, dc)
	}

	for _, dc := range confirms {
		ok, err := dc.WaitContext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotConfirmed
		}
	}
	return nil
}

func publishing(rec store.OutboxRecord) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    rec.ID,
		Type:         rec.EventType,
		Timestamp:    rec.OccurredAt.UTC(),
		Headers:      amqp.Table{"aggregate_id": rec.AggregateID},
		Body:         rec.Payload,
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
