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

	"github.com/procurex/procurex/internal/app"
	"github.com/procurex/procurex/internal/auth"
	"github.com/procurex/procurex/internal/dashboard"
	"github.com/procurex/procurex/internal/integration/erp"
	"github.com/procurex/procurex/internal/observability"
	"github.com/procurex/procurex/internal/offers"
	"github.com/procurex/procurex/internal/orders"
	"github.com/procurex/procurex/internal/platform/cache"
	"github.com/procurex/procurex/internal/platform/db"
	"github.com/procurex/procurex/internal/requests"
	"github.com/procurex/procurex/internal/responses"
	"github.com/procurex/procurex/internal/rfq"
	"github.com/procurex/procurex/internal/selections"
	"github.com/procurex/procurex/internal/shared"
	"github.com/procurex/procurex/internal/suppliers"
	"github.com/procurex/procurex/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	tokenStore := shared.NewTokenStore(redisClient, cfg.TokenTTL)
	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(logger, authRepo, tokenStore)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.NewMiddleware(authService)

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersService := suppliers.NewService(logger, suppliersRepo, auditLogger)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	requestsRepo := requests.NewRepository(dbpool)
	requestsService := requests.NewService(requestsRepo)
	requestsHandler := requests.NewHandler(logger, requestsService)

	rfqRepo := rfq.NewRepository(dbpool)
	rfqService := rfq.NewService(logger, rfqRepo, auditLogger, cfg.RFQMaxReminders)
	rfqHandler := rfq.NewHandler(logger, rfqService)

	responsesRepo := responses.NewRepository(dbpool)
	responsesService := responses.NewService(logger, responsesRepo, rfqService, auditLogger)
	responsesHandler := responses.NewHandler(logger, responsesService)

	offersRepo := offers.NewRepository(dbpool)
	offersService := offers.NewService(offersRepo)
	comparisonHandler := offers.NewHandler(logger, offersService)

	selectionsRepo := selections.NewRepository(dbpool)
	selectionsService := selections.NewService(logger, selectionsRepo, auditLogger)
	selectionsHandler := selections.NewHandler(logger, selectionsService)

	erpClient := erp.NewClient(cfg.RPAEndpoint, cfg.RPATimeout, cfg.RPAHeadless)
	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(logger, ordersRepo, erpClient, auditLogger, cfg.TaxRatePercent)
	ordersHandler := orders.NewHandler(logger, ordersService)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardService := dashboard.NewService(dashboardRepo)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Auth:              authMiddleware,
		AuthHandler:       authHandler,
		SuppliersHandler:  suppliersHandler,
		RequestsHandler:   requestsHandler,
		RFQHandler:        rfqHandler,
		ResponsesHandler:  responsesHandler,
		ComparisonHandler: comparisonHandler,
		SelectionsHandler: selectionsHandler,
		OrdersHandler:     ordersHandler,
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
