package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
)

// Runner performs one ingestion run
type Runner interface {
	IngestCatalog(ctx context.Context, opts services.IngestionOptions) (*services.IngestionResult, error)
}

// Scheduler periodically re-ingests the catalog
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	opts      services.IngestionOptions
	interval  time.Duration
	timeout   time.Duration
	logger    *logging.StructuredLogger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler that runs every interval. A zero timeout lets each
// run take as long as it needs.
func New(runner Runner, opts services.IngestionOptions, interval, timeout time.Duration, logger *logging.StructuredLogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		opts:      opts,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With(logging.Fields{"component": "scheduler"}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the job and starts the underlying scheduler. The first run
// happens immediately; overlapping runs are skipped.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.logger.Info(s.ctx, "[SCHEDULER_START] Periodic ingestion scheduled", logging.Fields{
		"interval": s.interval.String(),
	})
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runOnce() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info(ctx, "[SCHEDULER_RUN] Running catalog ingestion", logging.Fields{})

	result, err := s.runner.IngestCatalog(ctx, s.opts)
	if err != nil {
		s.logger.Error(ctx, "[SCHEDULER_RUN_ERROR] Catalog ingestion failed", logging.Fields{}, err)
		return
	}

	s.logger.Info(ctx, "[SCHEDULER_RUN_COMPLETE] Catalog ingestion finished", logging.Fields{
		"succeeded":   result.SucceededDataSets,
		"failed":      result.FailedDataSets,
		"records":     result.TotalRecords,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

// Stop cancels any running ingestion and stops future runs
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.logger.Info(context.Background(), "[SCHEDULER_STOP] Periodic ingestion stopped", logging.Fields{})
}
