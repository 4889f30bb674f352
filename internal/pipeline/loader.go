package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// Ingester stores batches of weather log inputs.
type Ingester interface {
	CreateBatch(ctx context.Context, source string, inputs []domain.WeatherLogInput) ([]domain.WeatherLog, error)
}

// IngestLoader implements BatchLoader on top of the ingestion service.
type IngestLoader struct {
	ingester Ingester
	source   string
}

// NewIngestLoader creates a loader that records source with every batch.
func NewIngestLoader(ingester Ingester, source string) *IngestLoader {
	return &IngestLoader{ingester: ingester, source: source}
}

// LoadBatch implements BatchLoader.
func (l *IngestLoader) LoadBatch(ctx context.Context, inputs []domain.WeatherLogInput) error {
	if _, err := l.ingester.CreateBatch(ctx, l.source, inputs); err != nil {
		return fmt.Errorf("ingest batch: %w", err)
	}
	return nil
}
