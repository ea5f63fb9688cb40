package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anime-character-catalog/backend/internal/repository"
	"anime-character-catalog/backend/pkg/config"
	"anime-character-catalog/backend/pkg/di"
	"anime-character-catalog/backend/pkg/logger"
	"anime-character-catalog/backend/pkg/router"
	"anime-character-catalog/backend/pkg/secrets"
	"anime-character-catalog/backend/shared/observability"
)

func main() {
	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", cfg.Server.Version, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vaultManager, err := secrets.NewVaultManager(secrets.VaultConfig{
		Enabled:   cfg.Vault.Enabled,
		Address:   cfg.Vault.Address,
		Token:     cfg.Vault.Token,
		Namespace: cfg.Vault.Namespace,
		Path:      cfg.Vault.SecretsPath,
	}, log)
	if err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}
	defer vaultManager.Close()
	secrets.SetManager(vaultManager)
	cfg.Database.Password = secrets.GetSecretWithDefault(ctx, secrets.KeyDatabasePassword, cfg.Database.Password)

	// Initialize database
	db, err := config.NewDB(cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := repository.Migrate(db); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	container, err := di.New(db, cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Close()

	otelOpts := observability.Options{
		ServiceName: cfg.Observability.ServiceName,
		Version:     cfg.Server.Version,
		Tracing:     cfg.Observability.TracingEnabled,
		TraceWriter: os.Stdout,
	}
	if cfg.Observability.MetricsEnabled {
		otelOpts.Registerer = container.Metrics
	}
	shutdownTelemetry, err := observability.Setup(otelOpts)
	if err != nil {
		log.LogError(err, "Failed to initialize telemetry")
		os.Exit(1)
	}

	container.Health.Start(ctx)

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.LogError(err, "Failed to flush telemetry")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server exited gracefully")
}
