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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/replyflow-backend/internal/dispatch"
	"github.com/angelmondragon/replyflow-backend/internal/ledger"
	"github.com/angelmondragon/replyflow-backend/internal/retention"
	"github.com/angelmondragon/replyflow-backend/pkg/config"
	"github.com/angelmondragon/replyflow-backend/pkg/db"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
	"github.com/angelmondragon/replyflow-backend/pkg/migrate"
	"github.com/angelmondragon/replyflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "retention-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "retention-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	lock, err := retention.NewRedisLock(redisClient, redisClient.LockKey("retention:"+cfg.App.Env), cfg.Retention.Interval)
	requireResource(ctx, logg, "retention lock", err)

	registry := prometheus.NewRegistry()
	service, err := retention.NewService(retention.ServiceParams{
		Logger:   logg,
		Lock:     lock,
		Metrics:  metrics.NewRetentionMetrics(registry),
		Interval: cfg.Retention.Interval,
		Jobs: []retention.Job{
			{Name: "processed-events", Pruner: ledger.NewRepository(dbClient.DB()), MaxAge: cfg.Retention.LedgerMaxAge},
			{Name: "failed-events", Pruner: dispatch.NewDLQRepository(dbClient.DB()), MaxAge: cfg.Retention.FailedEventMaxAge},
		},
	})
	requireResource(ctx, logg, "retention service", err)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Retention.Interval.String(),
	})
	logg.Info(ctx, "starting retention worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "retention worker stopped unexpectedly", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logg.Info(ctx, "retention worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to initialize "+name, err)
	os.Exit(1)
}
