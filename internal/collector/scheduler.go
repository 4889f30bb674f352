package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const runTimeout = 2 * time.Minute

// Scheduler runs a Collector on a fixed interval, starting immediately.
type Scheduler struct {
	scheduler *gocron.Scheduler
	collector *Collector
	interval  time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler that collects every interval.
func NewScheduler(c *Collector, interval time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		collector: c,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the collection job and starts the scheduler in the
// background. Runs use contexts derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		if _, err := s.collector.Collect(runCtx); err != nil {
			s.logger.Error("collection failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule collector: %w", err)
	}

	s.logger.Info("collector scheduled", "interval", s.interval)
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler. No further runs start after it returns.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
