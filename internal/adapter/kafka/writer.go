package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-insights-service/internal/config"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// Writer publishes collector readings to a Kafka topic.
// It implements collector.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes reading and writes it to the topic.
func (w *Writer) Publish(ctx context.Context, reading domain.CollectorReading) error {
	msg, err := serializeToMessage(reading)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	w.logger.Debug("reading published", "topic", w.writer.Topic, "location", reading.Location)
	return nil
}

// Close flushes pending writes and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CollectorReading into a Kafka message keyed
// by location so readings for one place stay ordered.
func serializeToMessage(reading domain.CollectorReading) (kafkago.Message, error) {
	data, err := json.Marshal(reading)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize collector reading: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(reading.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "content_type", Value: []byte("application/json")},
			{Key: "collected_at", Value: []byte(collectedAt(reading).Format(time.RFC3339))},
		},
	}, nil
}

func collectedAt(reading domain.CollectorReading) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, reading.CollectedAt); err == nil {
			return ts.UTC()
		}
	}
	return domain.Now()
}
