package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// errDeliveriesClosed is returned once the broker closes the consumer channel.
var errDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// Consumer reads collector readings from a durable queue with manual
// acknowledgement. It implements pipeline.BatchExtractor; committing a
// RawMessage acks its delivery. Unacked deliveries are requeued by the broker
// when the consumer closes.
type Consumer struct {
	ch            *amqp.Channel
	queue         string
	deliveries    <-chan amqp.Delivery
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewConsumer opens a channel on conn, declares queue, and starts consuming
// with a prefetch of batchSize.
func NewConsumer(conn *amqp.Connection, queue string, batchSize int, flushInterval time.Duration, logger *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.Qos(batchSize, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	c := newConsumer(deliveries, queue, flushInterval, logger)
	c.ch = ch
	return c, nil
}

func newConsumer(deliveries <-chan amqp.Delivery, queue string, flushInterval time.Duration, logger *slog.Logger) *Consumer {
	return &Consumer{
		queue:         queue,
		deliveries:    deliveries,
		flushInterval: flushInterval,
		logger:        logger,
	}
}

// ExtractBatch collects up to batchSize deliveries, returning early once the
// flush interval elapses.
func (c *Consumer) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error) {
	timer := time.NewTimer(c.flushInterval)
	defer timer.Stop()

	batch := make([]domain.RawMessage, 0, batchSize)
	for len(batch) < batchSize {
		select {
		case <-ctx.Done():
			return batch, ctx.Err()
		case <-timer.C:
			return batch, nil
		case d, ok := <-c.deliveries:
			if !ok {
				if len(batch) > 0 {
					return batch, nil
				}
				return nil, errDeliveriesClosed
			}
			batch = append(batch, mapDeliveryToRawMessage(d, c.queue))
		}
	}
	return batch, nil
}

// Close closes the channel. The connection is owned by the caller.
func (c *Consumer) Close() error {
	if c.ch == nil {
		return nil
	}
	return c.ch.Close()
}

func mapDeliveryToRawMessage(d amqp.Delivery, queue string) domain.RawMessage {
	headers := make(map[string]string, len(d.Headers)+1)
	for k, v := range d.Headers {
		headers[k] = fmt.Sprint(v)
	}
	if d.ContentType != "" {
		headers["content_type"] = d.ContentType
	}
	return domain.RawMessage{
		Key:       []byte(d.MessageId),
		Value:     d.Body,
		Headers:   headers,
		Source:    queue,
		Offset:    int64(d.DeliveryTag),
		Timestamp: d.Timestamp,
		Commit: func(context.Context) error {
			return d.Ack(false)
		},
	}
}
