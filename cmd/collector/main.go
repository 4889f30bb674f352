package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	amqpadapter "github.com/couchcryptid/weather-insights-service/internal/adapter/amqp"
	opshttp "github.com/couchcryptid/weather-insights-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-insights-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-insights-service/internal/adapter/mapbox"
	"github.com/couchcryptid/weather-insights-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-insights-service/internal/collector"
	"github.com/couchcryptid/weather-insights-service/internal/config"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/observability"
)

// publisher is a queue producer the collector writes to.
type publisher interface {
	collector.Publisher
	Close() error
}

func main() {
	cfg, err := config.LoadCollector()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	pub, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start publisher", "target", cfg.PublishTarget, "error", err)
		os.Exit(1)
	}

	source := openmeteo.NewClient(cfg.OpenMeteoURL, cfg.Timezone, cfg.OpenMeteoTimeout, metrics, logger)
	site := collector.Site{Latitude: cfg.Latitude, Longitude: cfg.Longitude, Location: cfg.Location}
	c := collector.New(source, pub, geocoder, site, metrics, logger)
	sched := collector.NewScheduler(c, cfg.CollectInterval, logger)

	ops := opshttp.NewServer(cfg.OpsAddr, logger)

	// Start ops server.
	go func() {
		if err := ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	logger.Info("collector starting",
		"lat", cfg.Latitude,
		"lon", cfg.Longitude,
		"location", cfg.Location,
		"target", cfg.PublishTarget,
	)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		_ = pub.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Error("publisher close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (publisher, error) {
	switch cfg.PublishTarget {
	case config.QueueKafka:
		return kafkaadapter.NewWriter(cfg, logger), nil
	case config.QueueAMQP:
		conn, err := amqpadapter.Dial(ctx, cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, err
		}
		p, err := amqpadapter.NewPublisher(conn, cfg.QueueName, logger)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return &amqpPublisher{Publisher: p, close: conn.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported publish target %q", cfg.PublishTarget)
	}
}

// amqpPublisher closes the connection along with the publisher channel.
type amqpPublisher struct {
	*amqpadapter.Publisher
	close func() error
}

func (p *amqpPublisher) Close() error {
	return errors.Join(p.Publisher.Close(), p.close())
}
