package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/replyflow-backend/api/routes"
	"github.com/angelmondragon/replyflow-backend/internal/accounts"
	"github.com/angelmondragon/replyflow-backend/internal/activity"
	"github.com/angelmondragon/replyflow-backend/internal/automations"
	"github.com/angelmondragon/replyflow-backend/internal/dispatch"
	"github.com/angelmondragon/replyflow-backend/internal/ledger"
	"github.com/angelmondragon/replyflow-backend/internal/pipeline"
	"github.com/angelmondragon/replyflow-backend/internal/routing"
	"github.com/angelmondragon/replyflow-backend/pkg/auth/session"
	"github.com/angelmondragon/replyflow-backend/pkg/config"
	"github.com/angelmondragon/replyflow-backend/pkg/db"
	"github.com/angelmondragon/replyflow-backend/pkg/graph"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
	"github.com/angelmondragon/replyflow-backend/pkg/migrate"
	"github.com/angelmondragon/replyflow-backend/pkg/redis"
	"github.com/angelmondragon/replyflow-backend/pkg/workflow"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(runCtx, cfg.DB, logg)
	requireResource(runCtx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	requireResource(runCtx, logg, "dev migrations", migrate.MaybeRunDev(runCtx, cfg, logg, dbClient))

	redisClient, err := redis.New(runCtx, cfg.Redis, logg)
	requireResource(runCtx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(runCtx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	conn := dbClient.DB()
	accountRepo := accounts.NewRepository(conn)
	automationRepo := automations.NewRepository(conn)
	routeRepo := routing.NewRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)
	dlqRepo := dispatch.NewDLQRepository(conn)

	graphClient := graph.NewClient(
		graph.WithBaseURL(cfg.Meta.GraphBaseURL),
		graph.WithVersion(cfg.Meta.GraphVersion),
		graph.WithTimeout(cfg.Meta.RequestTimeout),
	)

	var engine workflow.Engine
	if cfg.Workflow.Enabled() {
		client, err := workflow.NewClient(cfg.Workflow.BaseURL,
			workflow.WithAPIKey(cfg.Workflow.APIKey),
			workflow.WithTimeout(cfg.Workflow.RequestTimeout),
		)
		requireResource(runCtx, logg, "workflow client", err)
		engine = client
	}

	activityService, err := activity.NewService(activity.NewRepository(conn), accountRepo)
	requireResource(runCtx, logg, "activity service", err)

	failedEventService, err := dispatch.NewFailedEventService(dlqRepo, accountRepo)
	requireResource(runCtx, logg, "failed event service", err)

	lifecycle, err := routing.NewLifecycleManager(routeRepo, automationRepo, accountRepo, engine, dbClient, logg)
	requireResource(runCtx, logg, "route lifecycle", err)

	admissions, err := ledger.NewService(ledgerRepo)
	requireResource(runCtx, logg, "ledger", err)

	limiter, err := newRateLimiter(cfg.Pipeline, ledgerRepo, redisClient)
	requireResource(runCtx, logg, "rate limiter", err)

	opts := []pipeline.Option{pipeline.WithMetrics(pipelineMetrics)}
	if cfg.Pipeline.Dispatch {
		if engine == nil {
			logg.Warn(runCtx, "dispatch enabled without a workflow engine; skipping dispatch path")
		} else {
			resolver, err := routing.NewResolver(routeRepo, logg)
			requireResource(runCtx, logg, "route resolver", err)
			dispatcher, err := dispatch.NewDispatcher(engine, dlqRepo, pipelineMetrics, logg)
			requireResource(runCtx, logg, "dispatcher", err)
			opts = append(opts, pipeline.WithDispatch(resolver, dispatcher))
		}
	}
	if cfg.Pipeline.DirectExecution {
		executor, err := automations.NewExecutor(graphClient, activityService, logg,
			automations.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
			automations.WithCalendarURL(cfg.Pipeline.CalendarURL),
			automations.WithMetrics(pipelineMetrics),
		)
		requireResource(runCtx, logg, "executor", err)
		direct, err := automations.NewService(automationRepo, accountRepo, executor, logg)
		requireResource(runCtx, logg, "automation service", err)
		opts = append(opts, pipeline.WithDirectExecution(direct))
	}

	eventPipeline, err := pipeline.New(admissions, limiter, logg, opts...)
	requireResource(runCtx, logg, "pipeline", err)

	queue, err := pipeline.NewQueue(cfg.Pipeline.QueueSize, cfg.Pipeline.Workers, logg, pipelineMetrics)
	requireResource(runCtx, logg, "queue", err)
	requireResource(runCtx, logg, "queue start", queue.Start(runCtx))

	intake, err := pipeline.NewIntake(queue, eventPipeline)
	requireResource(runCtx, logg, "intake", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":              cfg.App.Env,
		"addr":             addr,
		"dispatch":         cfg.Pipeline.Dispatch && engine != nil,
		"direct_execution": cfg.Pipeline.DirectExecution,
		"rate_limit":       cfg.Pipeline.RateLimitBackend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, registry,
			pipelineMetrics, intake, lifecycle, activityService, failedEventService),
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
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "http shutdown", err)
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		logg.Error(ctx, "queue drain incomplete", err)
	}
	logg.Info(ctx, "api server stopped")
}

func newRateLimiter(cfg config.PipelineConfig, repo ledger.Repository, redisClient *redis.Client) (ledger.RateLimiter, error) {
	if cfg.UsesRedisRateLimit() {
		return ledger.NewRedisRateLimiter(redisClient, cfg.RateLimitPerWindow, cfg.RateLimitWindow)
	}
	return ledger.NewLedgerRateLimiter(repo, cfg.RateLimitPerWindow, cfg.RateLimitWindow)
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to initialize "+name, err)
	os.Exit(1)
}
