package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/workbridge/workbridge/internal/app"
	"github.com/workbridge/workbridge/internal/audit"
	jobmetrics "github.com/workbridge/workbridge/internal/jobs"
	"github.com/workbridge/workbridge/internal/platform/db"
	"github.com/workbridge/workbridge/internal/platform/mail"
	"github.com/workbridge/workbridge/jobs"
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

	metrics := jobmetrics.NewMetrics(nil)
	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	mailJob := jobs.NewMailJob(sender, logger, metrics)
	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
	}

	var cron []jobs.CronRegistration
	if cfg.AuditRetention > 0 {
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		pruneJob := jobs.NewAuditPruneJob(audit.NewRepository(pool), cfg.AuditRetention, logger, metrics)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskTypeAuditPrune, Handler: pruneJob.Handle})
		cron = append(cron, jobs.CronRegistration{Spec: cfg.AuditPruneCron, Task: jobs.NewAuditPruneTask()})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.Redis().AsynqOpt(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if addr := cfg.WorkerMetricsAddr; addr != "" {
		srv := &http.Server{Addr: addr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
