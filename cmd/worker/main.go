package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nimbus-console/nimbus-console/internal/app"
	"github.com/nimbus-console/nimbus-console/internal/mailer"
	"github.com/nimbus-console/nimbus-console/internal/platform/db"
	"github.com/nimbus-console/nimbus-console/internal/reset"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	mail := mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPFromName)
	resetRepo := reset.NewRepository(pool)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeResetEmail, Handler: jobs.ResetEmailHandler(logger, mail)},
			{Type: jobs.TaskTypePurgeTokens, Handler: jobs.PurgeTokensHandler(logger, resetRepo)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "20 3 * * *", Task: jobs.NewPurgeTokensTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
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
