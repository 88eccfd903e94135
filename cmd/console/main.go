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
	"github.com/joho/godotenv"

	"github.com/nimbus-console/nimbus-console/internal/activity"
	"github.com/nimbus-console/nimbus-console/internal/app"
	"github.com/nimbus-console/nimbus-console/internal/auth"
	"github.com/nimbus-console/nimbus-console/internal/companies"
	"github.com/nimbus-console/nimbus-console/internal/deletion"
	"github.com/nimbus-console/nimbus-console/internal/export"
	"github.com/nimbus-console/nimbus-console/internal/i18n"
	"github.com/nimbus-console/nimbus-console/internal/observability"
	"github.com/nimbus-console/nimbus-console/internal/platform/cache"
	"github.com/nimbus-console/nimbus-console/internal/platform/db"
	"github.com/nimbus-console/nimbus-console/internal/prefs"
	"github.com/nimbus-console/nimbus-console/internal/profile"
	"github.com/nimbus-console/nimbus-console/internal/provision"
	"github.com/nimbus-console/nimbus-console/internal/reset"
	"github.com/nimbus-console/nimbus-console/internal/shared"
	"github.com/nimbus-console/nimbus-console/jobs"
)

func main() {
	_ = godotenv.Load()

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
	prefsStore := prefs.NewStore(redisClient)
	metrics := observability.NewMetrics()

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

	activityRepo := activity.NewRepository(dbpool)
	activityService := activity.NewService(activityRepo)
	activityHandler := activity.NewHandler(logger, activityService)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(logger, authRepo, sessionManager, prefsStore, cfg.SupportEmail)
	authHandler := auth.NewHandler(logger, authService)

	resetRepo := reset.NewRepository(dbpool)
	resetService := reset.NewService(logger, resetRepo, jobClient, activityRepo, cfg.ConsoleBaseURL, cfg.ResetTokenTTL)
	resetHandler := reset.NewHandler(logger, resetService)

	profileRepo := profile.NewRepository(dbpool)
	profileService := profile.NewService(logger, profileRepo, activityRepo)
	profileHandler := profile.NewHandler(logger, profileService)

	deletionStates := deletion.NewStateStore(redisClient, cfg.SessionTTL)
	deletionRepo := deletion.NewRepository(dbpool)
	deletionService := deletion.NewService(logger, deletionRepo, profileRepo, activityService, activityRepo, sessionManager, deletionStates)
	deletionHandler := deletion.NewHandler(logger, deletionService)

	exportService := export.NewService(logger, profileRepo, activityService, activityRepo)
	exportHandler := export.NewHandler(logger, exportService)

	companiesRepo := companies.NewRepository(dbpool)
	companiesHandler := companies.NewHandler(logger, companiesRepo)

	provisionRepo := provision.NewRepository(dbpool)
	provisionService := provision.NewService(logger, provisionRepo, companiesRepo)
	provisionHandler := provision.NewHandler(logger, provisionService)

	prefsHandler := prefs.NewHandler(logger, prefsStore)

	catalog, err := i18n.Load(cfg.DefaultLanguage)
	if err != nil {
		logger.Error("load locale catalog", slog.Any("error", err))
		os.Exit(1)
	}
	i18nHandler := i18n.NewHandler(logger, catalog)

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
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		ResetHandler:     resetHandler,
		ProfileHandler:   profileHandler,
		DeletionHandler:  deletionHandler,
		ExportHandler:    exportHandler,
		ActivityHandler:  activityHandler,
		ProvisionHandler: provisionHandler,
		CompaniesHandler: companiesHandler,
		PrefsHandler:     prefsHandler,
		I18NHandler:      i18nHandler,
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
