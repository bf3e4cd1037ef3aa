package retention

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
)

const defaultInterval = time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Lock     Lock
	Metrics  *metrics.RetentionMetrics
	Interval time.Duration
	Jobs     []Job
}

// Service prunes the ledger and dead-letter tables on a fixed cadence.
type Service struct {
	logg     *logger.Logger
	lock     Lock
	metrics  *metrics.RetentionMetrics
	interval time.Duration
	jobs     []Job
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if len(params.Jobs) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}
	for _, job := range params.Jobs {
		if err := job.validate(); err != nil {
			return nil, err
		}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		jobs:     params.Jobs,
		now:      time.Now,
	}, nil
}

// Run prunes once immediately and then every interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "retention.cycle_failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logg.Error(ctx, "retention.cycle_failed", err)
			}
		}
	}
}

// RunOnce runs every job under the lock. A failing job does not stop the
// others; their errors are combined.
func (s *Service) RunOnce(ctx context.Context) error {
	ok, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.logg.Info(ctx, "retention.lock_held")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "retention.lock_release_failed", err)
		}
	}()

	var errs error
	for _, job := range s.jobs {
		errs = multierr.Append(errs, s.runJob(ctx, job))
	}
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	cutoff := s.now().UTC().Add(-job.MaxAge)
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name, "cutoff": cutoff})

	start := time.Now()
	deleted, err := job.Pruner.DeleteBefore(jobCtx, cutoff)
	s.metrics.ObserveRun(job.Name, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Name, err)
	}
	s.metrics.AddPruned(job.Name, deleted)
	s.logg.Info(s.logg.WithField(jobCtx, "rows_deleted", deleted), "retention.job_complete")
	return nil
}
