package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/groundwork-re/groundwork/internal/app"
	"github.com/groundwork-re/groundwork/internal/consolidation"
	consolhttp "github.com/groundwork-re/groundwork/internal/consolidation/http"
	"github.com/groundwork-re/groundwork/internal/dedup"
	"github.com/groundwork-re/groundwork/internal/entity"
	"github.com/groundwork-re/groundwork/internal/interco"
	"github.com/groundwork-re/groundwork/internal/ledger"
	"github.com/groundwork-re/groundwork/internal/observability"
	"github.com/groundwork-re/groundwork/internal/ownership"
	"github.com/groundwork-re/groundwork/internal/platform/cache"
	"github.com/groundwork-re/groundwork/internal/platform/db"
	"github.com/groundwork-re/groundwork/internal/shared"
	"github.com/groundwork-re/groundwork/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.NewWithOptions(ctx, cfg.PGDSN, db.Options{
		AppName:  "groundwork-api",
		MaxConns: cfg.PGMaxConns,
		MinConns: cfg.PGMinConns,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
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

	metrics := observability.NewMetrics()
	if err := consolhttp.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Warn("register cache metrics", slog.Any("error", err))
	}

	entityRepo := entity.NewRepository(dbpool)
	entityService := entity.NewService(entityRepo)
	entityHandler := entity.NewHandler(logger, entityService)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	ownershipRepo := ownership.NewRepository(dbpool)
	ownershipService := ownership.NewService(ownershipRepo)
	resolver := ownership.NewResolver(ownershipRepo, entityService, logger)
	ownershipHandler := ownership.NewHandler(logger, ownershipService, resolver)

	dedupService := dedup.NewService(ledgerService, ownershipRepo, dedup.NewAlertRepository(dbpool), nil, logger)
	dedupService.WithAudit(shared.NewAuditLogger(dbpool))
	dedupHandler := dedup.NewHandler(logger, dedupService)

	intercoRepo := interco.NewRepository(dbpool)
	intercoService := interco.NewService(intercoRepo, entityService, resolver, logger)
	intercoHandler := interco.NewHandler(logger, intercoService)

	consolService := consolidation.NewService(resolver, ledgerService, intercoRepo, logger)
	reportCache := consolhttp.NewReportCache(redisClient, cfg.ReportCacheTTL)
	consolHandler := consolhttp.NewHandler(logger, consolService, reportCache)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		EntityHandler:    entityHandler,
		LedgerHandler:    ledgerHandler,
		OwnershipHandler: ownershipHandler,
		DedupHandler:     dedupHandler,
		IntercoHandler:   intercoHandler,
		ConsolHandler:    consolHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
