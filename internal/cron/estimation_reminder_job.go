package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/metrics"
)

const (
	estimationReminderJobName = "estimation-reminder"
	defaultReminderWindow     = 48 * time.Hour
	defaultReminderBatch      = 100
)

type reminderStore interface {
	ListReminderCandidates(ctx context.Context, now time.Time, window time.Duration, limit int) ([]sales.Record, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type reminderSender interface {
	Reminder(ctx context.Context, rec *sales.Record) error
}

type EstimationReminderJobParams struct {
	Logger    *logger.Logger
	Records   reminderStore
	Sender    reminderSender
	Metrics   *metrics.CronJobMetrics
	Window    time.Duration
	BatchSize int
}

// NewEstimationReminderJob emails sellers whose pending offer expires within the window.
// Each offer gets at most one reminder; failed sends are retried on the next run.
func NewEstimationReminderJob(params EstimationReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("record repository required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("reminder sender required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultReminderWindow
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReminderBatch
	}
	return &estimationReminderJob{
		logg:    params.Logger,
		records: params.Records,
		sender:  params.Sender,
		metrics: params.Metrics,
		window:  window,
		batch:   batch,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

type estimationReminderJob struct {
	logg    *logger.Logger
	records reminderStore
	sender  reminderSender
	metrics *metrics.CronJobMetrics
	window  time.Duration
	batch   int
	now     func() time.Time
}

func (j *estimationReminderJob) Name() string { return estimationReminderJobName }

func (j *estimationReminderJob) Run(ctx context.Context) error {
	now := j.now()
	candidates, err := j.records.ListReminderCandidates(ctx, now, j.window, j.batch)
	if err != nil {
		return fmt.Errorf("list reminder candidates: %w", err)
	}

	var errs error
	sent := 0
	for i := range candidates {
		rec := &candidates[i]
		if err := j.sender.Reminder(ctx, rec); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remind %s: %w", rec.ID, err))
			continue
		}
		if err := j.records.MarkReminderSent(ctx, rec.ID, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark reminder %s: %w", rec.ID, err))
			continue
		}
		sent++
	}

	j.metrics.AddProcessed(estimationReminderJobName, sent)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"candidates": len(candidates),
		"sent":       sent,
	}), "cron.reminders_sent")
	return errs
}
