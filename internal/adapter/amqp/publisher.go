package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/google/uuid"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// Publisher sends collector readings to a durable queue as persistent
// messages. It implements collector.Publisher.
type Publisher struct {
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

// NewPublisher opens a channel on conn and declares queue.
func NewPublisher(conn *amqp.Connection, queue string, logger *slog.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch, queue: queue, logger: logger}, nil
}

// Publish serializes reading and publishes it to the queue.
func (p *Publisher) Publish(ctx context.Context, reading domain.CollectorReading) error {
	msg, err := newPublishing(reading)
	if err != nil {
		return err
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	p.logger.Debug("reading published", "queue", p.queue, "location", reading.Location)
	return nil
}

// Close closes the channel. The connection is owned by the caller.
func (p *Publisher) Close() error {
	return p.ch.Close()
}

func newPublishing(reading domain.CollectorReading) (amqp.Publishing, error) {
	body, err := json.Marshal(reading)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("serialize collector reading: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    domain.Now(),
		Body:         body,
	}, nil
}
