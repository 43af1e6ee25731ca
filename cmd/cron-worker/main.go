package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clodamigoles/dossiers.vevo/internal/bootstrap"
	"github.com/clodamigoles/dossiers.vevo/internal/cron"
	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/instance"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/metrics"
	"github.com/clodamigoles/dossiers.vevo/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("jobs", "", "comma separated job names to run (default: all)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	stores, err := bootstrap.OpenStores(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap record store", err)
		os.Exit(1)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing record store", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	notifier, err := bootstrap.NewNotifier(cfg, stores.Records, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	jobs, err := buildJobs(cfg, logg, stores, notifier, metricsCollector)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron jobs", err)
		os.Exit(1)
	}

	registry, err := selectJobs(jobs, *only)
	if err != nil {
		logg.Error(context.Background(), "invalid job selection", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(cron.RedisLockParams{
		Client:   redisClient,
		Key:      redisClient.LockKey(lockName(cfg.App.Env)),
		TTL:      cfg.Cron.LockTTL,
		Instance: instance.GetID(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Cron.Interval.String(),
		"jobs":     registry.Names(),
	})

	if *once {
		report, err := service.RunOnce(ctx)
		if err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		if report.Skipped {
			logg.Warn(ctx, "cron cycle skipped, lock held by another instance")
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
