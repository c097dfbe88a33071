// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"database/sql"
	"errors"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playarena/internal/config"
	"playarena/internal/handlers"
	"playarena/internal/logger"
	"playarena/internal/middleware"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/repositories/cache"
	"playarena/internal/repositories/memory"
	"playarena/internal/services/audit"
	"playarena/internal/services/ledger"
	"playarena/internal/services/match"
	"playarena/internal/services/notification"
	"playarena/internal/services/payment"
	"playarena/internal/services/refund"
	"playarena/internal/services/withdrawal"
	"playarena/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const version = "1.0.0"

// main initializes and starts the HTTP server.
// It performs the following setup:
// - Loads configuration
// - Opens the store (Postgres or in-memory) and Redis
// - Wires the services
// - Configures routes
// - Runs the HTTP server and the registration scheduler until signalled
func main() {
	config.LoadEnv()
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, sqlDB, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	checks := map[string]handlers.HealthCheck{}
	if sqlDB != nil {
		defer func() {
			if err := sqlDB.Close(); err != nil {
				log.Warn("failed to close database connection", zap.Error(err))
			}
		}()
		checks["database"] = sqlDB.PingContext
	}

	// Redis backs the balance cache, webhook de-duplication and notification
	// fan-out. Without it every one of those degrades to a no-op.
	var (
		balanceCache ledger.BalanceCache
		publisher    notification.Publisher
		deduper      payment.Deduper
		cacheSvc     *cache.CacheService
	)
	if cfg.Redis.Enabled {
		cacheSvc = cache.NewCacheService(cache.NewRedisClient(cfg.Redis), 5*time.Minute)
		if err := cacheSvc.HealthCheck(ctx); err != nil {
			log.Warn("redis unavailable, continuing without cache", zap.Error(err))
			_ = cacheSvc.Close()
			cacheSvc = nil
		} else {
			defer func() {
				if err := cacheSvc.Close(); err != nil {
					log.Warn("failed to close redis connection", zap.Error(err))
				}
			}()
			balanceCache, publisher, deduper = cacheSvc, cacheSvc, cacheSvc
			checks["redis"] = cacheSvc.HealthCheck
		}
	}

	go reportPoolStats(ctx, log, sqlDB, cacheSvc)

	// Services
	ledgerSvc := ledger.NewService(store, balanceCache, ledger.NewLogMetricsCollector(log), log)
	notifier := notification.NewService(store.Notifications(), publisher, log)
	auditSvc := audit.NewService(store.AdminLogs(), log)

	matchSvc := match.NewService(store, ledgerSvc,
		refund.NewFlatPolicy(cfg.Match.CancellationFeeRate, cfg.Match.NoRefundWindow),
		notifier, auditSvc,
		match.Config{JoinableStatuses: joinableStatuses(cfg.Match.JoinableStatuses, log)},
		log)

	withdrawalSvc := withdrawal.NewService(store, ledgerSvc, notifier, auditSvc, withdrawal.Config{
		Minimum: decimal.NewFromFloat(cfg.Withdrawal.Minimum),
		MaxOpen: cfg.Withdrawal.MaxOpenRequests,
		TDS: withdrawal.FlatTDS{
			Rate:       decimal.NewFromFloat(cfg.Withdrawal.TDSRate),
			ExemptUpTo: decimal.NewFromFloat(cfg.Withdrawal.TDSExemptUpTo),
		},
		PaymentMethodLimit: cfg.Withdrawal.PaymentMethodLimit,
	}, log)

	if cfg.Payment.WebhookSecret == "" {
		log.Warn("PAYMENT_WEBHOOK_SECRET is empty, gateway webhooks will be rejected")
	}
	paymentSvc := payment.NewService(store, ledgerSvc,
		payment.NewHMACVerifier(cfg.Payment.GatewaySecret),
		payment.NewHMACVerifier(cfg.Payment.WebhookSecret),
		deduper, notifier,
		payment.Config{StripeWebhookSecret: cfg.Payment.StripeWebhookSecret},
		log)

	go match.NewScheduler(matchSvc, cfg.Match.SchedulerInterval).Run(ctx)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "playarena " + version,
		ErrorHandler: response.ErrorHandler(log),
	})

	app.Use(recover.New())

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	// Middleware
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	auth := middleware.NewAuthMiddleware(cfg.JWT.Secret, store.Users(), log)

	// Routes
	handlers.SetupRoutes(app, handlers.Handlers{
		Match:        handlers.NewMatchHandler(matchSvc),
		Wallet:       handlers.NewWalletHandler(ledgerSvc, paymentSvc),
		Withdrawal:   handlers.NewWithdrawalHandler(withdrawalSvc),
		Admin:        handlers.NewAdminHandler(ledgerSvc, auditSvc, store.Users()),
		Notification: handlers.NewNotificationHandler(notifier),
		Health:       handlers.NewHealthHandler(version, checks),
	}, handlers.RouteOptions{
		Auth:         auth.Handler,
		MoneyLimiter: middleware.MoneyLimiter(cfg.Server.JoinRateLimit, time.Minute),
	})

	// Start server
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn("graceful shutdown failed", zap.Error(err))
		}
	}
}

// openStore returns the configured store; sqlDB is nil for the memory driver.
func openStore(cfg *config.Config, log *zap.Logger) (repositories.Store, *sql.DB, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil, nil
	case "postgres", "":
		db, err := repositories.InitDB(cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewGormStore(db), sqlDB, nil
	}
	return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.Store.Driver)
}

func joinableStatuses(names []string, log *zap.Logger) []models.MatchStatus {
	out := make([]models.MatchStatus, 0, len(names))
	for _, name := range names {
		status := models.MatchStatus(name)
		if !status.Valid() || status.Terminal() {
			log.Warn("ignoring joinable status", zap.String("status", name))
			continue
		}
		out = append(out, status)
	}
	return out
}

// reportPoolStats logs connection pool stats once a minute.
func reportPoolStats(ctx context.Context, log *zap.Logger, sqlDB *sql.DB, cacheSvc *cache.CacheService) {
	if sqlDB == nil && cacheSvc == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if sqlDB != nil {
			stats := sqlDB.Stats()
			log.Debug("db pool",
				zap.Int("open", stats.OpenConnections),
				zap.Int("idle", stats.Idle),
				zap.Int("in_use", stats.InUse),
				zap.Int64("wait_count", stats.WaitCount),
				zap.Duration("wait_duration", stats.WaitDuration))
		}
		if cacheSvc != nil {
			stats := cacheSvc.Stats()
			log.Debug("redis pool",
				zap.Uint32("total", stats.TotalConns),
				zap.Uint32("idle", stats.IdleConns),
				zap.Uint32("hits", stats.Hits),
				zap.Uint32("misses", stats.Misses),
				zap.Uint32("timeouts", stats.Timeouts))
		}
	}
}
