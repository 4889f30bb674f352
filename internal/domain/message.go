package domain

import (
	"context"
	"time"
)

// RawMessage represents an unprocessed message from the ingestion queue.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Source    string // topic or queue name
	Partition int
	Offset    int64 // Kafka offset or AMQP delivery tag
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
