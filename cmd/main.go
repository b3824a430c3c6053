package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"payflow/internal/backend"
	"payflow/internal/bootstrap"
	"payflow/internal/config"
	cronpkg "payflow/internal/cron"
	"payflow/internal/notify"
	"payflow/internal/outcome"
	"payflow/internal/repository"
	"payflow/internal/router"
	"payflow/internal/verify"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	payments := repository.NewPaymentRepository(db)

	// --- Outcome store (Redis with in-memory fallback) ---
	store, storeErr := outcome.NewRedisStore(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Outcome.TTL,
	)
	if storeErr != nil {
		logger.Warn("Redis unavailable for outcome storage, using in-memory fallback",
			zap.Error(storeErr))
		store = outcome.NewMemoryStore(cfg.Outcome.TTL)
	}

	// --- Payment platform client ---
	platform := backend.New(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Timeout, logger)

	// --- Merchant notifier (optional) ---
	notifier, err := notify.New(cfg.Bot.Token, cfg.Bot.ChatID, logger)
	if err != nil {
		logger.Fatal("Failed to create telegram notifier", zap.Error(err))
	}

	// --- Verification pipeline ---
	policy := verify.Policy{
		InitialDelay: cfg.Verify.InitialDelay,
		PollInterval: cfg.Verify.PollInterval,
		MaxAttempts:  cfg.Verify.MaxAttempts,
	}
	manager := verify.NewManager(logger)
	outcomes := outcome.NewRouter(store, payments, notifierOrNil(notifier), logger)

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	router.Setup(e, router.Deps{
		DB:       db,
		Backend:  platform,
		Manager:  manager,
		Outcomes: outcomes,
		Policy:   policy,
		APIKey:   cfg.API.Key,
		Logger:   logger,
	})

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(manager, store, payments, notifier, policy, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting payflow server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop verification sessions first: in-flight outcomes get dropped
	// rather than half-written.
	manager.StopAll()

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// notifierOrNil keeps a disabled notifier from turning into a non-nil
// interface holding a nil pointer.
func notifierOrNil(n *notify.Notifier) outcome.Notifier {
	if n == nil {
		return nil
	}
	return n
}
