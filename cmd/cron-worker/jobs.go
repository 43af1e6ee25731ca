package main

import (
	"strings"

	"github.com/clodamigoles/dossiers.vevo/internal/bootstrap"
	"github.com/clodamigoles/dossiers.vevo/internal/cron"
	"github.com/clodamigoles/dossiers.vevo/internal/notifications"
	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/metrics"
)

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}

// selectJobs registers jobs and narrows them to the comma separated names in only.
func selectJobs(jobs []cron.Job, only string) (*cron.Registry, error) {
	registry, err := cron.NewRegistry(jobs...)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(only) == "" {
		return registry, nil
	}
	return registry.Select(strings.Split(only, ",")...)
}

func buildJobs(cfg *config.Config, logg *logger.Logger, stores *bootstrap.Stores, notifier *notifications.Service, collector *metrics.CronJobMetrics) ([]cron.Job, error) {
	expiry, err := cron.NewEstimationExpiryJob(cron.EstimationExpiryJobParams{
		Logger:    logg,
		Records:   stores.Records,
		Metrics:   collector,
		BatchSize: cfg.Cron.ReminderBatch,
	})
	if err != nil {
		return nil, err
	}

	reminder, err := cron.NewEstimationReminderJob(cron.EstimationReminderJobParams{
		Logger:    logg,
		Records:   stores.Records,
		Sender:    notifier,
		Metrics:   collector,
		Window:    cfg.Cron.ReminderWindow,
		BatchSize: cfg.Cron.ReminderBatch,
	})
	if err != nil {
		return nil, err
	}

	cleanup, err := cron.NewAuthCodeCleanupJob(cron.AuthCodeCleanupJobParams{
		Logger:    logg,
		Codes:     stores.Codes,
		Metrics:   collector,
		BatchSize: cfg.Cron.CodeCleanupSize,
	})
	if err != nil {
		return nil, err
	}

	return []cron.Job{expiry, reminder, cleanup}, nil
}
