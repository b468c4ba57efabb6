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

	"github.com/storeops/console/internal/app"
	"github.com/storeops/console/internal/assignment"
	"github.com/storeops/console/internal/auth"
	"github.com/storeops/console/internal/authrules"
	"github.com/storeops/console/internal/hierarchy"
	"github.com/storeops/console/internal/observability"
	"github.com/storeops/console/internal/platform/cache"
	"github.com/storeops/console/internal/platform/db"
	"github.com/storeops/console/internal/rbac"
	"github.com/storeops/console/internal/roles"
	"github.com/storeops/console/internal/shared"
	"github.com/storeops/console/internal/snapshot"
	"github.com/storeops/console/internal/stores"
	"github.com/storeops/console/internal/users"
	"github.com/storeops/console/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "console_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	snapshots := snapshot.NewCache(redisClient, cfg.SnapshotTTL, logger)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Cache: snapshots, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, snapshots, rbacService)

	hierarchyRepo := hierarchy.NewRepository(dbpool)
	hierarchyService := hierarchy.NewService(hierarchyRepo, auditLogger, logger)
	hierarchyHandler := hierarchy.NewHandler(logger, hierarchyService, rbacMiddleware)

	rulesRepo := authrules.NewRepository(dbpool)
	rulesService := authrules.NewService(rulesRepo, auditLogger, logger)
	rulesHandler := authrules.NewHandler(logger, rulesService, rbacMiddleware)

	assignmentRepo := assignment.NewRepository(dbpool)
	orchestrator := assignment.NewOrchestrator(assignmentRepo, auditLogger, metrics, logger)

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
	assignmentHandler := assignment.NewHandler(logger, orchestrator, rbacMiddleware, jobClient, cfg.BulkAsyncThreshold)

	rolesHandler := roles.NewHandler(logger, roles.NewService(roles.NewRepository(dbpool)), rbacMiddleware)
	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool)), rbacMiddleware)
	storesHandler := stores.NewHandler(logger, stores.NewService(stores.NewRepository(dbpool)), rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		HierarchyHandler:   hierarchyHandler,
		RulesHandler:       rulesHandler,
		AssignmentHandler:  assignmentHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		StoresHandler:      storesHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
