// Package cli provides common initialization utilities shared by
// cmd/financepro and cmd/financepro-worker.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"financepro/internal/backend"
	"financepro/internal/config"
	applog "financepro/internal/log"
	"financepro/internal/sheets"
	"financepro/internal/syncer"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging with default settings and
// installs it as the process-wide default.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend creates the persistence backend selected by the config.
// Returns the store or exits the process on failure.
func OpenBackend(cfg *config.Config, logger *applog.Logger) backend.Store {
	store, err := backend.Open(backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		DataDir:      cfg.DataDir,
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize backend",
			applog.FieldError, err,
			applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return store
}

// BuildSyncTarget creates the configured sync target. The webhook target
// reads its endpoint from the settings store per call; the sheets target is
// configured entirely from the environment. Exits the process when the
// sheets client cannot be built.
func BuildSyncTarget(ctx context.Context, cfg *config.Config, endpoints syncer.EndpointSource, logger *applog.Logger) syncer.Target {
	switch cfg.SyncTarget {
	case config.SyncTargetSheets:
		client, err := sheets.NewFromEnv(ctx, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Initialized Google Sheets sync target")
		return client
	default:
		return syncer.NewWebhook(endpoints, cfg.SyncTimeout, logger)
	}
}
