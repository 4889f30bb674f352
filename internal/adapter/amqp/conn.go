// Package amqp connects the ingestion pipeline and the collector to RabbitMQ.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dialAttempts = 10
	dialDelay    = 5 * time.Second
)

// Dial connects to url, retrying while the broker starts up.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		logger.Warn("rabbitmq connection failed",
			"attempt", attempt,
			"max_attempts", dialAttempts,
			"error", err,
		)

		timer := time.NewTimer(dialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("dial rabbitmq after %d attempts: %w", dialAttempts, lastErr)
}

// declareQueue declares the durable queue shared by publisher and consumer.
func declareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}
