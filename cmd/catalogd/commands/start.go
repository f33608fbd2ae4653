package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/api"
	"github.com/datalakehq/catalogd/pkg/catalog/service"
	"github.com/datalakehq/catalogd/pkg/catalog/store"
	"github.com/datalakehq/catalogd/pkg/config"
	"github.com/datalakehq/catalogd/pkg/metrics"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the catalogd server",
	Long: `Start the catalogd server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/catalogd/config.yaml.

Examples:
  # Start with default config location
  catalogd start

  # Start with custom config file
  catalogd start --config /etc/catalogd/config.yaml

  # Start with environment variable overrides
  CATALOGD_LOGGING_LEVEL=DEBUG catalogd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Initialize metrics before creating the service so the collectors
	// register against the live registry.
	var catalogMetrics *metrics.CatalogMetrics
	var httpMetrics *metrics.HTTPMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		catalogMetrics = metrics.NewCatalogMetrics()
		httpMetrics = metrics.NewHTTPMetrics()
		logger.Info("Metrics enabled", "endpoint", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Store close error", logger.Err(err))
		}
	}()
	logger.Info("Catalog store initialized", "type", cfg.Database.Type)

	svc, err := service.New(st, catalogMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog service: %w", err)
	}

	if !cfg.API.HasJWTSecret() {
		logger.Warn("No JWT secret configured, token authentication disabled",
			"env_var", api.EnvAPISecret)
	}

	apiServer := api.NewServer(cfg.API, svc, st, httpMetrics)
	logger.Info("API server configured", "port", apiServer.Port())

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", logger.Err(err))
		}
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
