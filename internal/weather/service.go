// Package weather ingests weather observations and serves them back. Every
// stored log carries the comfort insight and score derived at ingestion time.
package weather

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/weather-insights-service/internal/comfort"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/observability"
)

const (
	// DefaultListLimit is used when a caller does not ask for a positive limit.
	DefaultListLimit = 100
	// MaxListLimit caps a single list request.
	MaxListLimit = 1000
)

// Ingestion sources recorded in metrics.
const (
	SourceAPI = "api"
)

// LogRepository persists weather logs.
type LogRepository interface {
	InsertLog(ctx context.Context, log domain.WeatherLog) error
	InsertLogs(ctx context.Context, logs []domain.WeatherLog) error
	// ListLogs returns up to limit logs ordered by timestamp, newest first.
	ListLogs(ctx context.Context, limit int) ([]domain.WeatherLog, error)
	// LatestLog returns domain.ErrNotFound when no logs exist.
	LatestLog(ctx context.Context) (domain.WeatherLog, error)
}

// Service validates observations, derives comfort fields, and stores them.
type Service struct {
	repo    LogRepository
	engine  comfort.Engine
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service that scores observations with engine.
func NewService(repo LogRepository, engine comfort.Engine, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		repo:    repo,
		engine:  engine,
		logger:  logger,
		metrics: metrics,
	}
}

// Create validates in, derives its insight and comfort score, and persists it.
func (s *Service) Create(ctx context.Context, in domain.WeatherLogInput) (domain.WeatherLog, error) {
	log, err := s.build(in)
	if err != nil {
		return domain.WeatherLog{}, err
	}
	if err := s.repo.InsertLog(ctx, log); err != nil {
		return domain.WeatherLog{}, fmt.Errorf("insert weather log: %w", err)
	}
	s.observe(SourceAPI, log)
	return log, nil
}

// CreateBatch ingests queued observations from source. Inputs that fail
// validation are logged and dropped; the rest are stored in one call. It
// returns the stored logs.
func (s *Service) CreateBatch(ctx context.Context, source string, inputs []domain.WeatherLogInput) ([]domain.WeatherLog, error) {
	logs := make([]domain.WeatherLog, 0, len(inputs))
	for i, in := range inputs {
		log, err := s.build(in)
		if err != nil {
			s.logger.Warn("dropping invalid weather log",
				"source", source,
				"index", i,
				"location", in.Location,
				"error", err,
			)
			s.metrics.TransformErrors.Inc()
			continue
		}
		logs = append(logs, log)
	}
	if len(logs) == 0 {
		return nil, nil
	}

	if err := s.repo.InsertLogs(ctx, logs); err != nil {
		return nil, fmt.Errorf("insert weather logs: %w", err)
	}
	for _, log := range logs {
		s.observe(source, log)
	}
	return logs, nil
}

// List returns the most recent logs, newest first. Non-positive limits use
// DefaultListLimit; larger ones are capped at MaxListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]domain.WeatherLog, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	logs, err := s.repo.ListLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list weather logs: %w", err)
	}
	return logs, nil
}

// Latest returns the most recent log, or domain.ErrNotFound.
func (s *Service) Latest(ctx context.Context) (domain.WeatherLog, error) {
	log, err := s.repo.LatestLog(ctx)
	if err != nil {
		return domain.WeatherLog{}, fmt.Errorf("latest weather log: %w", err)
	}
	return log, nil
}

func (s *Service) build(in domain.WeatherLogInput) (domain.WeatherLog, error) {
	log, err := Derive(in, s.engine)
	if err != nil {
		return domain.WeatherLog{}, err
	}

	now := domain.Now()
	log.ID = uuid.NewString()
	log.CreatedAt = now
	log.UpdatedAt = now
	return log, nil
}

// Derive validates in and returns its record with the insight and comfort
// score filled in. ID and server timestamps are left empty.
func Derive(in domain.WeatherLogInput, engine comfort.Engine) (domain.WeatherLog, error) {
	if err := domain.Validate(in); err != nil {
		return domain.WeatherLog{}, err
	}

	log := in.ToLog()
	obs := log.Observation()
	log.AIInsight = engine.GenerateInsight(obs)
	log.ComfortScore = engine.CalculateComfortScore(obs)
	return log, nil
}

func (s *Service) observe(source string, log domain.WeatherLog) {
	s.metrics.LogsIngested.WithLabelValues(source).Inc()
	s.metrics.ComfortScore.Observe(float64(log.ComfortScore))
}
