package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/metrics"
)

const defaultInterval = time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs the sale maintenance jobs (offer expiry, reminders, code cleanup)
// once per interval while holding the shared lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

// CycleReport summarises one pass over the registry.
type CycleReport struct {
	Skipped bool
	Ran     []string
	Failed  []string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Registry == nil || len(params.Registry.Jobs()) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes one cycle immediately, then one per interval until ctx is canceled.
// Job failures are logged and never stop the loop.
func (s *Service) Run(ctx context.Context) error {
	s.logCycle(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
			s.logCycle(ctx)
		}
	}
}

func (s *Service) logCycle(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
}

// RunOnce takes the lock and runs every job in order. A held lock yields a
// skipped report and no error; job errors are combined into the returned error.
func (s *Service) RunOnce(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		report.Skipped = true
		s.logg.Info(ctx, "cron.cycle_skipped_locked")
		return report, nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", relErr)
		}
	}()

	var errs error
	for _, job := range s.registry.Jobs() {
		report.Ran = append(report.Ran, job.Name())
		if jobErr := s.runJob(ctx, job); jobErr != nil {
			report.Failed = append(report.Failed, job.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), jobErr))
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"ran":    report.Ran,
		"failed": report.Failed,
	}), "cron.cycle_complete")
	return report, errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		s.metrics.IncFailure(job.Name())
		return err
	}
	s.logg.Info(jobCtx, "cron.job_complete")
	s.metrics.IncSuccess(job.Name())
	return nil
}
