package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/scheduler"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger("info", "text").Logger, "Invalid configuration", err)
	}

	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		cli.Fatal(logger.Logger, "Server stopped with error", err)
	}
	logger.Info("Server stopped gracefully")
}

// run blocks until a shutdown signal or a fatal server error. Backend
// resources are released before it returns.
func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	svc := buildServices(cfg, result, m)

	sched, err := scheduler.New(cfg.CleanupSchedule, m, logger.WithComponent(log.ComponentScheduler).Logger,
		scheduler.Job{Kind: "sessions", Purger: svc.Sessions},
		scheduler.Job{Kind: "reset_tokens", Purger: svc.Resets},
	)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:        logger,
		Metrics:       m,
		RateLimitRPM:  cfg.RateLimitRPM,
		SecureCookies: strings.HasPrefix(cfg.BaseURL, "https://"),
		Health:        result.Store.Ping,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"notifier", result.Notifier != nil,
			"metrics", cfg.MetricsEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		return nil
	})

	return g.Wait()
}

func buildServices(cfg *config.Config, result *backend.Result, m *metrics.Metrics) apphttp.Services {
	store := result.Store
	hasher := services.NewPasswordHasher(cfg.BcryptCost)
	return apphttp.Services{
		Transactions: services.NewTransactionService(store, store),
		Categories:   services.NewCategoryService(store, store),
		Budgets:      services.NewBudgetService(store, store),
		Savings:      services.NewSavingService(store, m),
		Reports:      services.NewReportService(store, store, m),
		Users: services.NewUserService(services.UserStores{
			Users:        store,
			Transactions: store,
			Categories:   store,
			Budgets:      store,
			Savings:      store,
		}, hasher),
		Sessions: services.NewSessionService(store, store, cfg.SessionTTL),
		Resets:   services.NewPasswordResetService(store, store, result.Notifier, hasher, cfg.BaseURL, cfg.ResetTokenTTL),
	}
}
