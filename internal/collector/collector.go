// Package collector periodically fetches current conditions for a fixed
// coordinate and publishes them to the ingestion queue.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-insights-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/observability"
)

// WeatherSource fetches current conditions for a coordinate.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (openmeteo.Conditions, error)
}

// Publisher sends a reading to the ingestion queue.
type Publisher interface {
	Publish(ctx context.Context, reading domain.CollectorReading) error
}

// Site identifies where readings are collected. An empty Location is resolved
// through the geocoder.
type Site struct {
	Latitude  float64
	Longitude float64
	Location  string
}

// Collector turns one weather API call into one published reading.
type Collector struct {
	source    WeatherSource
	publisher Publisher
	geocoder  domain.Geocoder
	site      Site
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Collector. geocoder may be nil.
func New(source WeatherSource, publisher Publisher, geocoder domain.Geocoder, site Site, metrics *observability.Metrics, logger *slog.Logger) *Collector {
	return &Collector{
		source:    source,
		publisher: publisher,
		geocoder:  geocoder,
		site:      site,
		metrics:   metrics,
		logger:    logger,
	}
}

// Collect fetches current conditions and publishes them.
func (c *Collector) Collect(ctx context.Context) (domain.CollectorReading, error) {
	reading, err := c.collect(ctx)
	if err != nil {
		c.metrics.CollectorRuns.WithLabelValues("error").Inc()
		return domain.CollectorReading{}, err
	}
	c.metrics.CollectorRuns.WithLabelValues("success").Inc()
	c.metrics.MessagesPublished.Inc()

	c.logger.Info("weather reading collected",
		"location", reading.Location,
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
		"wind_speed", reading.WindSpeed,
		"condition", reading.WeatherDescription,
	)
	return reading, nil
}

func (c *Collector) collect(ctx context.Context) (domain.CollectorReading, error) {
	cond, err := c.source.Current(ctx, c.site.Latitude, c.site.Longitude)
	if err != nil {
		return domain.CollectorReading{}, err
	}

	label := domain.ResolveLocationLabel(ctx, c.site.Location, c.site.Latitude, c.site.Longitude, c.geocoder, c.logger)
	reading := NewReading(cond, c.site, label, domain.Now())

	if err := c.publisher.Publish(ctx, reading); err != nil {
		return domain.CollectorReading{}, fmt.Errorf("publish reading: %w", err)
	}
	return reading, nil
}

// NewReading builds the queue payload for cond collected at collectedAt.
func NewReading(cond openmeteo.Conditions, site Site, label string, collectedAt time.Time) domain.CollectorReading {
	return domain.CollectorReading{
		Timestamp:                cond.Timestamp(),
		Location:                 label,
		Latitude:                 site.Latitude,
		Longitude:                site.Longitude,
		Temperature:              cond.Temperature,
		Humidity:                 cond.Humidity,
		WindSpeed:                cond.WindSpeed,
		WeatherCode:              cond.WeatherCode,
		WeatherDescription:       openmeteo.DescribeWeatherCode(cond.WeatherCode),
		Precipitation:            cond.Precipitation,
		PrecipitationProbability: cond.PrecipitationProbability,
		ApparentTemperature:      cond.ApparentTemperature,
		CloudCover:               cond.CloudCover,
		Pressure:                 cond.Pressure,
		CollectedAt:              collectedAt.Format(time.RFC3339Nano),
	}
}
