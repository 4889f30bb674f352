package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// ReadingTransformer decodes collector readings and applies the queue's
// sanity guard before mapping them to weather log inputs.
type ReadingTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a ReadingTransformer.
func NewTransformer(logger *slog.Logger) *ReadingTransformer {
	return &ReadingTransformer{logger: logger}
}

// Transform implements Transformer. Messages without a usable timestamp are
// stamped with the time the broker received them.
func (t *ReadingTransformer) Transform(_ context.Context, raw domain.RawMessage) (domain.WeatherLogInput, error) {
	reading, err := domain.ParseCollectorReading(raw)
	if err != nil {
		return domain.WeatherLogInput{}, err
	}
	if err := reading.Check(); err != nil {
		return domain.WeatherLogInput{}, err
	}

	fallback := raw.Timestamp
	if fallback.IsZero() {
		fallback = domain.Now()
	}
	in := reading.LogInput(fallback)

	t.logger.Debug("reading transformed",
		"location", in.Location,
		"observed_at", in.Timestamp,
		"source", raw.Source,
	)
	return in, nil
}
