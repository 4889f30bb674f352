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
	"github.com/couchcryptid/weather-insights-service/internal/adapter/api"
	opshttp "github.com/couchcryptid/weather-insights-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-insights-service/internal/adapter/kafka"
	mongoadapter "github.com/couchcryptid/weather-insights-service/internal/adapter/mongo"
	"github.com/couchcryptid/weather-insights-service/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-insights-service/internal/auth"
	"github.com/couchcryptid/weather-insights-service/internal/comfort"
	"github.com/couchcryptid/weather-insights-service/internal/config"
	"github.com/couchcryptid/weather-insights-service/internal/observability"
	"github.com/couchcryptid/weather-insights-service/internal/pipeline"
	"github.com/couchcryptid/weather-insights-service/internal/users"
	"github.com/couchcryptid/weather-insights-service/internal/weather"
)

// store is satisfied by both storage drivers.
type store interface {
	weather.LogRepository
	users.UserRepository
	Ping(ctx context.Context) error
}

// ingestSource is a queue consumer the pipeline extracts from.
type ingestSource interface {
	pipeline.BatchExtractor
	Close() error
}

func main() {
	cfg, err := config.LoadAPI()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	logger.Info("store opened", "driver", cfg.StoreDriver)

	weatherSvc := weather.NewService(db, comfort.Default, logger, metrics)
	userSvc := users.NewService(db, logger)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authSvc := auth.NewService(userSvc, tokens, logger)

	if err := userSvc.EnsureDefaultAdmin(ctx, users.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	}); err != nil {
		logger.Error("failed to seed default admin", "error", err)
		closeStore()
		os.Exit(1)
	}

	checks := []opshttp.Check{{Name: "store", Checker: opshttp.ReadinessFunc(db.Ping)}}

	var source ingestSource
	var p *pipeline.Pipeline
	if cfg.IngestSource != config.QueueNone {
		source, err = newIngestSource(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to start ingest source", "source", cfg.IngestSource, "error", err)
			closeStore()
			os.Exit(1)
		}
		loader := pipeline.NewIngestLoader(weatherSvc, cfg.IngestSource)
		p = pipeline.New(source, pipeline.NewTransformer(logger), loader, logger, metrics, cfg.BatchSize)
		checks = append(checks, opshttp.Check{Name: "pipeline", Checker: p})
	} else {
		logger.Info("queue ingestion disabled")
	}

	app := api.NewApp(api.Options{CORSOrigin: cfg.CORSOrigin}, weatherSvc, userSvc, authSvc, metrics, logger)
	ops := opshttp.NewServer(cfg.OpsAddr, logger, checks...)

	// Start ops server.
	go func() {
		if err := ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	// Start REST API.
	go func() {
		logger.Info("api server starting", "addr", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()

	// Start ingestion pipeline.
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if p == nil {
			return
		}
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", "error", err)
	}
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}

	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if source != nil {
		if err := source.Close(); err != nil {
			logger.Error("ingest source close error", "error", err)
		}
	}
	closeStore()

	logger.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		s, err := mongoadapter.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = s.Close(closeCtx)
		}, nil
	default:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

func newIngestSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ingestSource, error) {
	switch cfg.IngestSource {
	case config.QueueKafka:
		logger.Info("consuming from kafka", "topic", cfg.KafkaTopic, "group_id", cfg.KafkaGroupID)
		return kafkaadapter.NewReader(cfg, logger), nil
	case config.QueueAMQP:
		conn, err := amqpadapter.Dial(ctx, cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, err
		}
		consumer, err := amqpadapter.NewConsumer(conn, cfg.QueueName, cfg.BatchSize, cfg.BatchFlushInterval, logger)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		logger.Info("consuming from rabbitmq", "queue", cfg.QueueName)
		return &amqpSource{Consumer: consumer, close: conn.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported ingest source %q", cfg.IngestSource)
	}
}

// amqpSource closes the connection along with the consumer channel.
type amqpSource struct {
	*amqpadapter.Consumer
	close func() error
}

func (s *amqpSource) Close() error {
	return errors.Join(s.Consumer.Close(), s.close())
}
