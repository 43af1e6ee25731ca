package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/metrics"
)

const (
	authCodeCleanupJobName = "auth-code-cleanup"
	defaultCleanupBatch    = 500
	maxCleanupBatches      = 20
)

type expiredCodeStore interface {
	DeleteExpiredUnused(ctx context.Context, now time.Time, limit int) (int64, error)
}

type AuthCodeCleanupJobParams struct {
	Logger    *logger.Logger
	Codes     expiredCodeStore
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

// NewAuthCodeCleanupJob purges unused codes past their expiry. Consumed codes carry
// session tokens and are never touched.
func NewAuthCodeCleanupJob(params AuthCodeCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Codes == nil {
		return nil, fmt.Errorf("auth code repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultCleanupBatch
	}
	return &authCodeCleanupJob{
		logg:    params.Logger,
		codes:   params.Codes,
		metrics: params.Metrics,
		batch:   batch,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

type authCodeCleanupJob struct {
	logg    *logger.Logger
	codes   expiredCodeStore
	metrics *metrics.CronJobMetrics
	batch   int
	now     func() time.Time
}

func (j *authCodeCleanupJob) Name() string { return authCodeCleanupJobName }

func (j *authCodeCleanupJob) Run(ctx context.Context) error {
	now := j.now()
	var total int64
	for i := 0; i < maxCleanupBatches; i++ {
		deleted, err := j.codes.DeleteExpiredUnused(ctx, now, j.batch)
		if err != nil {
			return fmt.Errorf("delete expired codes: %w", err)
		}
		total += deleted
		if deleted < int64(j.batch) {
			break
		}
	}
	j.metrics.AddProcessed(authCodeCleanupJobName, int(total))
	j.logg.Info(j.logg.WithField(ctx, "deleted", total), "cron.auth_codes_purged")
	return nil
}
