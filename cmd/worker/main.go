package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/procurex/procurex/internal/app"
	jobmetrics "github.com/procurex/procurex/internal/jobs"
	"github.com/procurex/procurex/internal/platform/db"
	"github.com/procurex/procurex/internal/rfq"
	"github.com/procurex/procurex/internal/shared"
	"github.com/procurex/procurex/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

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

	auditLogger := shared.NewAuditLogger(pool)
	rfqRepo := rfq.NewRepository(pool)
	rfqService := rfq.NewService(logger, rfqRepo, auditLogger, cfg.RFQMaxReminders)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	mailer, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer mailer.Close()

	jobMetrics := jobmetrics.NewMetrics(nil)
	sweepHandler := jobs.NewRFQReminderSweepHandler(logger, rfqService, mailer, cfg.RFQReminderAfter, jobMetrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Mail:      jobs.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeRFQReminderSweep, Handler: sweepHandler},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: jobs.NewRFQReminderSweepTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
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
