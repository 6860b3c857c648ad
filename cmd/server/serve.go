package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/api"
	"github.com/bcnelson/winterface/internal/config"
	"github.com/bcnelson/winterface/internal/logging"
	"github.com/bcnelson/winterface/internal/metrics"
	"github.com/bcnelson/winterface/internal/server"
	"github.com/bcnelson/winterface/internal/service"
	"github.com/bcnelson/winterface/internal/storage/file"
	"github.com/bcnelson/winterface/internal/storage/sql"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin interface",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.Logging())
	slog.SetDefault(logger)

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	// Load access settings: defaults, then the settings file, then the store.
	// Any invalid stored value aborts startup.
	var overlay access.Source
	if cfg.UseSettingsFile() {
		overlay = file.New(cfg.Settings.File)
	}
	accessCfg := access.New()
	sources := []access.Source{store}
	if overlay != nil {
		sources = []access.Source{overlay, store}
	}
	if _, err := accessCfg.Load(cmd.Context(), sources...); err != nil {
		return fmt.Errorf("loading access settings: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	settings := service.NewSettingsService(store, accessCfg, overlay, cfg.Settings.RestartDebounce, logger, m)
	defer settings.Close()

	router := api.NewRouter(settings, reg, logger, m)

	listeners := server.NewManager(accessCfg, router, logger, m)
	if err := listeners.Start(); err != nil {
		return fmt.Errorf("starting listeners: %w", err)
	}
	settings.OnRestart(listeners.RestartFunc())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.UseSettingsFile() && cfg.Settings.Watch {
		reloader, err := service.NewReloader(settings, cfg.Settings.File, cfg.Settings.RestartDebounce, logger)
		if err != nil {
			return fmt.Errorf("watching settings file: %w", err)
		}
		go func() {
			if err := reloader.Run(ctx); err != nil {
				logger.Error("Settings watcher stopped", "error", err)
			}
		}()
	}

	logger.Info("Admin interface started", "addrs", server.BindAddrs(accessCfg))

	// Wait for interrupt signal or a listener failure
	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-listeners.Errors():
	}

	logger.Info("Shutting down server...")
	settings.Close()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := listeners.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return serveErr
}
