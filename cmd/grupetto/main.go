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

	"github.com/grupetto/grupetto/internal/app"
	"github.com/grupetto/grupetto/internal/auth"
	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/events"
	"github.com/grupetto/grupetto/internal/observability"
	"github.com/grupetto/grupetto/internal/platform/cache"
	"github.com/grupetto/grupetto/internal/platform/db"
	"github.com/grupetto/grupetto/internal/profiles"
	"github.com/grupetto/grupetto/internal/registrations"
	"github.com/grupetto/grupetto/internal/results"
	"github.com/grupetto/grupetto/internal/roles"
	"github.com/grupetto/grupetto/internal/shared"
	"github.com/grupetto/grupetto/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionSecret, cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, approvalRecorder, auditLogger, logger)
	authzMiddleware := authz.Middleware{Resolver: rolesService, Logger: logger}
	rolesHandler := roles.NewHandler(logger, rolesService, authzMiddleware)

	profilesRepo := profiles.NewRepository(dbpool)
	profilesService := profiles.NewService(profilesRepo, rolesService, logger)
	profilesHandler := profiles.NewHandler(logger, profilesService, authzMiddleware)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, rolesService, profilesService, sessionManager, logger)
	authHandler := auth.NewHandler(logger, authService, authzMiddleware)

	eventsRepo := events.NewRepository(dbpool)
	rosterCache := events.NewRosterCache(redisClient)
	eventsService := events.NewService(eventsRepo, rolesService, auditLogger, rosterCache, logger)
	eventsHandler := events.NewHandler(logger, eventsService, authzMiddleware)

	registrationsRepo := registrations.NewRepository(dbpool)
	registrationsService := registrations.NewService(registrationsRepo, eventsService, rolesService, approvalRecorder, auditLogger, logger)
	registrationsHandler := registrations.NewHandler(logger, registrationsService, authzMiddleware, idempotencyStore)

	resultsRepo := results.NewRepository(dbpool)
	resultsService := results.NewService(resultsRepo, eventsService, rolesService, auditLogger, logger)
	resultsHandler := results.NewHandler(logger, resultsService, authzMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		AuthHandler:          authHandler,
		RolesHandler:         rolesHandler,
		EventsHandler:        eventsHandler,
		RegistrationsHandler: registrationsHandler,
		ResultsHandler:       resultsHandler,
		ProfilesHandler:      profilesHandler,
		JobsHandler:          jobsHandler,
		Metrics:              metrics,
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
