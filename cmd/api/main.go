package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/clodamigoles/dossiers.vevo/api/controllers"
	"github.com/clodamigoles/dossiers.vevo/api/routes"
	"github.com/clodamigoles/dossiers.vevo/internal/auth"
	"github.com/clodamigoles/dossiers.vevo/internal/bootstrap"
	"github.com/clodamigoles/dossiers.vevo/internal/payments"
	"github.com/clodamigoles/dossiers.vevo/internal/photos"
	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/env"
	"github.com/clodamigoles/dossiers.vevo/pkg/instance"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/metrics"
	"github.com/clodamigoles/dossiers.vevo/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	objectStore, err := bootstrap.NewObjectStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	notifier, err := bootstrap.NewNotifier(cfg, stores.Records, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	verifier, err := bootstrap.NewPaymentVerifier(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment verifier", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(stores.Records, notifier, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Codes:   stores.Codes,
		Records: stores.Records,
		Sender:  notifier,
		CodeTTL: cfg.Session.CodeTTL,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	photoService, err := photos.NewService(stores.Records, objectStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create photo service", err)
		os.Exit(1)
	}

	fee, err := cfg.Payments.Fee()
	if err != nil {
		logg.Error(context.Background(), "invalid payment fee", err)
		os.Exit(1)
	}
	paymentService, err := payments.NewService(payments.ServiceParams{
		Records:  stores.Records,
		Verifier: verifier,
		Receipts: notifier,
		Fee:      fee,
		Currency: cfg.Payments.Currency,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	checks := map[string]controllers.Pinger{
		"db":      stores.Pinger,
		"redis":   redisClient,
		"storage": objectStore,
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"driver":   cfg.DB.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			checks,
			redisClient,
			httpMetrics,
			registry,
			salesService,
			authService,
			photoService,
			paymentService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server stopped")
	}
}
