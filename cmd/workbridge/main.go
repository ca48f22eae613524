package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/workbridge/workbridge/internal/app"
	"github.com/workbridge/workbridge/internal/audit"
	audithttp "github.com/workbridge/workbridge/internal/audit/http"
	"github.com/workbridge/workbridge/internal/auth"
	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/catalog/regions"
	"github.com/workbridge/workbridge/internal/catalog/skills"
	"github.com/workbridge/workbridge/internal/catalog/statuses"
	"github.com/workbridge/workbridge/internal/chat"
	"github.com/workbridge/workbridge/internal/feedback"
	"github.com/workbridge/workbridge/internal/files"
	jobmetrics "github.com/workbridge/workbridge/internal/jobs"
	"github.com/workbridge/workbridge/internal/observability"
	"github.com/workbridge/workbridge/internal/orders"
	"github.com/workbridge/workbridge/internal/platform/cache"
	"github.com/workbridge/workbridge/internal/platform/db"
	"github.com/workbridge/workbridge/internal/rating"
	"github.com/workbridge/workbridge/internal/search"
	"github.com/workbridge/workbridge/internal/shared"
	"github.com/workbridge/workbridge/internal/users"
	"github.com/workbridge/workbridge/jobs"
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
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	redisOpt := cfg.Redis().AsynqOpt()

	mailQueue := jobs.NewClient(redisOpt, jobMetrics)
	defer func() {
		if err := mailQueue.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	store, fileServer, err := app.NewStorage(cfg)
	if err != nil {
		return err
	}
	uploads := files.NewService(store, logger)
	auditor := shared.NewAuditLogger(pool)

	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return err
	}
	authRepo := auth.NewRepository(pool)
	resolver := auth.NewResolver(codec, authRepo)
	evaluator := authz.NewEvaluator(authz.NewPGLoader(pool), metrics)
	guard := authz.Middleware{Resolver: resolver, Evaluator: evaluator, Recorder: metrics, Logger: logger}

	authService := auth.NewService(authRepo, codec, mailQueue, logger)
	authHandler := auth.NewHandler(logger, authService)

	usersService := users.NewService(users.NewRepository(pool), uploads, auditor)
	usersHandler := users.NewHandler(logger, usersService, guard, authHandler.HandleRegister)
	ratingHandler := rating.NewHandler(logger, rating.NewService(pool, auditor), guard)

	ordersService := orders.NewService(orders.NewRepository(pool), auditor)
	ordersHandler := orders.NewHandler(logger, ordersService, guard)

	hub := chat.NewHub(redisClient, resolver, chat.NewRoomGate(evaluator), logger,
		chat.WithOriginPatterns(originPatterns(cfg.CORSAllowedOrigins)))
	chatService := chat.NewService(chat.NewRepository(pool), evaluator, hub, auditor, logger)
	chatHandler := chat.NewHandler(logger, chatService, guard)

	skillsService := skills.NewService(skills.NewRepository(pool), uploads, auditor)
	statusesService := statuses.NewService(statuses.NewRepository(pool), auditor)
	regionsService := regions.NewService(regions.NewRepository(pool), auditor)

	feedbackService := feedback.NewService(feedback.NewRepository(pool), mailQueue, cfg.AdminEmail, auditor, logger)
	searchService := search.NewService(search.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Authz:           guard,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		RatingHandler:   ratingHandler,
		OrdersHandler:   ordersHandler,
		ChatHandler:     chatHandler,
		Hub:             hub,
		SkillsHandler:   skills.NewHandler(logger, skillsService, guard),
		StatusesHandler: statuses.NewHandler(logger, statusesService, guard),
		RegionsHandler:  regions.NewHandler(logger, regionsService, guard),
		FeedbackHandler: feedback.NewHandler(logger, feedbackService, guard),
		SearchHandler:   search.NewHandler(logger, searchService, guard),
		AuditHandler:    audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(pool)), guard),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Files:           fileServer,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// originPatterns strips schemes because websocket origin patterns match hosts.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, o)
	}
	return out
}
