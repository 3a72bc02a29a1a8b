package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/groundwork-re/groundwork/internal/app"
	"github.com/groundwork-re/groundwork/internal/consolidation"
	consolhttp "github.com/groundwork-re/groundwork/internal/consolidation/http"
	"github.com/groundwork-re/groundwork/internal/dedup"
	"github.com/groundwork-re/groundwork/internal/entity"
	"github.com/groundwork-re/groundwork/internal/interco"
	"github.com/groundwork-re/groundwork/internal/ledger"
	"github.com/groundwork-re/groundwork/internal/ownership"
	"github.com/groundwork-re/groundwork/internal/platform/cache"
	"github.com/groundwork-re/groundwork/internal/platform/db"
	"github.com/groundwork-re/groundwork/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.NewWithOptions(ctx, cfg.PGDSN, db.Options{
		AppName:  "groundwork-worker",
		MaxConns: cfg.PGMaxConns,
		MinConns: cfg.PGMinConns,
	})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, warm reports disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	entityRepo := entity.NewRepository(pool)
	entityService := entity.NewService(entityRepo)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo)

	ownershipRepo := ownership.NewRepository(pool)
	resolver := ownership.NewResolver(ownershipRepo, entityService, logger)

	dedupService := dedup.NewService(ledgerService, ownershipRepo, dedup.NewAlertRepository(pool), nil, logger)

	intercoRepo := interco.NewRepository(pool)
	consolService := consolidation.NewService(resolver, ledgerService, intercoRepo, logger)
	reportCache := consolhttp.NewReportCache(redisClient, cfg.ReportCacheTTL)
	warmer := consolhttp.NewWarmer(consolService, reportCache)

	dedupJob := jobs.NewDedupScanJob(dedupService, entityService, logger, nil)
	warmupJob := jobs.NewConsolWarmupJob(warmer, entityService, logger, nil)

	dedupTask, err := jobs.NewDedupScanTask("all")
	if err != nil {
		logger.Error("build dedup scan task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewConsolWarmupTask("all")
	if err != nil {
		logger.Error("build consol warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDedupScan, Handler: dedupJob.Handle},
			{Type: jobs.TaskConsolWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.DedupScanCron, Task: dedupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.ConsolWarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
