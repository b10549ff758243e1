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

	"github.com/meridian-esg/meridian-esg/internal/app"
	"github.com/meridian-esg/meridian-esg/internal/assignment"
	"github.com/meridian-esg/meridian-esg/internal/consol"
	"github.com/meridian-esg/meridian-esg/internal/dashboard"
	"github.com/meridian-esg/meridian-esg/internal/hierarchy"
	"github.com/meridian-esg/meridian-esg/internal/ledger"
	"github.com/meridian-esg/meridian-esg/internal/observability"
	"github.com/meridian-esg/meridian-esg/internal/platform/cache"
	"github.com/meridian-esg/meridian-esg/internal/platform/db"
	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
	"github.com/meridian-esg/meridian-esg/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard caching disabled", slog.Any("error", err))
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
	auditLogger := shared.NewAuditLogger(pool, logger)
	workflowRecorder := shared.NewWorkflowRecorder(pool, logger)

	taxonomyRepo := taxonomy.NewRepository(pool)
	taxonomyService := taxonomy.NewService(taxonomyRepo)
	taxonomyHandler := taxonomy.NewHandler(logger, taxonomyService, auditLogger)

	hierarchyRepo := hierarchy.NewRepository(pool)
	hierarchyService := hierarchy.NewService(hierarchyRepo)
	hierarchyHandler := hierarchy.NewHandler(logger, hierarchyService, auditLogger)

	assignmentRepo := assignment.NewRepository(pool)
	assignmentService := assignment.NewService(assignmentRepo, taxonomyRepo, hierarchyService)
	assignmentHandler := assignment.NewHandler(logger, assignmentService, auditLogger)

	consolRepo := consol.NewRepository(pool)
	consolService := consol.NewService(consolRepo, hierarchyService)
	consolHandler := consol.NewHandler(logger, consolService, auditLogger)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache, consolService, metrics, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, taxonomyService, hierarchyService,
		workflowRecorder, auditLogger, dashboardService, logger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		TaxonomyHandler:   taxonomyHandler,
		HierarchyHandler:  hierarchyHandler,
		AssignmentHandler: assignmentHandler,
		LedgerHandler:     ledgerHandler,
		ConsolHandler:     consolHandler,
		DashboardHandler:  dashboardHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
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
