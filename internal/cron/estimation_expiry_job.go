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
	estimationExpiryJobName = "estimation-expiry"
	defaultExpiryBatch      = 200
)

type staleOfferStore interface {
	ListStaleOffers(ctx context.Context, now time.Time, limit int) ([]sales.Record, error)
	ExpireOffer(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type EstimationExpiryJobParams struct {
	Logger    *logger.Logger
	Records   staleOfferStore
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

// NewEstimationExpiryJob persists the expired status of pending offers past validUntil.
// Reads already compute it; the job keeps listings and filters consistent.
func NewEstimationExpiryJob(params EstimationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("record repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &estimationExpiryJob{
		logg:    params.Logger,
		records: params.Records,
		metrics: params.Metrics,
		batch:   batch,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

type estimationExpiryJob struct {
	logg    *logger.Logger
	records staleOfferStore
	metrics *metrics.CronJobMetrics
	batch   int
	now     func() time.Time
}

func (j *estimationExpiryJob) Name() string { return estimationExpiryJobName }

func (j *estimationExpiryJob) Run(ctx context.Context) error {
	now := j.now()
	stale, err := j.records.ListStaleOffers(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("list stale offers: %w", err)
	}

	var errs error
	expired, answered := 0, 0
	for _, rec := range stale {
		ok, err := j.records.ExpireOffer(ctx, rec.ID, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire %s: %w", rec.ID, err))
			continue
		}
		if !ok {
			// answered between the listing and the update
			answered++
			continue
		}
		expired++
	}

	j.metrics.AddProcessed(estimationExpiryJobName, expired)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"candidates": len(stale),
		"expired":    expired,
		"answered":   answered,
	}), "cron.estimations_expired")
	return errs
}
