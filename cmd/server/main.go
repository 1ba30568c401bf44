package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tablekit/tablekit/internal/config"
	"github.com/tablekit/tablekit/internal/dataset"
	"github.com/tablekit/tablekit/internal/logging"
	"github.com/tablekit/tablekit/internal/persist"
	"github.com/tablekit/tablekit/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"dataset_dir", cfg.Data.DatasetDir,
		"default_page_size", cfg.Defaults.PageSize,
	)

	// Load dataset definitions
	loaded, err := dataset.LoadDir(cfg.Data.DatasetDir)
	if err != nil {
		slog.Error("failed to load datasets", "dir", cfg.Data.DatasetDir, "error", err)
		os.Exit(1)
	}
	slog.Info("datasets registered", "count", loaded, "groups", len(dataset.Groups()))
	for _, group := range dataset.Groups() {
		slog.Debug("dataset group", "group", group, "datasets", len(dataset.ByGroup(group)))
	}

	// State persistence: file-backed when a path is configured
	var store persist.Store
	if cfg.Persist.FilePath != "" {
		fileStore, err := persist.OpenFileStore(cfg.Persist.FilePath)
		if err != nil {
			slog.Error("failed to open state file", "path", cfg.Persist.FilePath, "error", err)
			os.Exit(1)
		}
		store = fileStore
		slog.Info("state persistence enabled", "path", cfg.Persist.FilePath)
	} else {
		store = persist.NewMemoryStore()
		slog.Info("state persistence in-memory only")
	}

	// Optional database connection for server-mode sessions
	ctx := context.Background()
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			slog.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}
	} else {
		slog.Info("no database configured, sessions run in client mode")
	}

	// Create server with config
	server := web.NewServer(cfg, store, pool)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
