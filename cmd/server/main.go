package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/geardb/internal/config"
	"github.com/JonMunkholm/geardb/internal/core"
	"github.com/JonMunkholm/geardb/internal/logging"
	"github.com/JonMunkholm/geardb/internal/store"
	"github.com/JonMunkholm/geardb/internal/web"
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
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"max_rows_per_add", cfg.Editor.MaxRowsPerAdd,
		"job_max_concurrent", cfg.Jobs.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	files, err := store.New(ctx, store.Options{
		Backend:     cfg.Store.Backend,
		Dir:         cfg.Store.Dir,
		DatabaseURL: cfg.Store.DatabaseURL,
		MaxConns:    cfg.Store.MaxConns,
		MinConns:    cfg.Store.MinConns,
		SQLitePath:  cfg.Store.SQLitePath,
	})
	if err != nil {
		slog.Error("failed to open save file store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer files.Close()
	slog.Info("save file store ready", "backend", files.Backend())

	editor := core.NewEditor(core.EditorOptions{
		MaxRowsPerAdd: cfg.Editor.MaxRowsPerAdd,
		Logger:        logger,
	})
	slog.Info("column types registered", "count", core.TypeCount())

	if name := cfg.Editor.Autoload; name != "" {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
		_, err := editor.Open(loadCtx, files, name)
		cancel()
		switch {
		case err == nil:
		case core.IsNotFound(err):
			slog.Warn("autoload file not found, starting empty", "name", name)
		default:
			slog.Error("failed to autoload save file", "name", name, "error", err)
			os.Exit(1)
		}
	}

	jobs := core.NewJobLimiter(cfg.Jobs.MaxConcurrent, cfg.Jobs.MaxWaitTime)
	server := web.NewServer(cfg, editor, files, jobs)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	autosaveDone := make(chan struct{})
	if cfg.Editor.AutosaveInterval > 0 {
		go func() {
			defer close(autosaveDone)
			editor.RunAutosave(jobCtx, files, cfg.Editor.AutosaveInterval, cfg.Store.Timeout)
		}()
	} else {
		close(autosaveDone)
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running imports and exports (with timeout)
		if st := jobs.Status(); st.Active > 0 {
			slog.Info("waiting for jobs to complete", "active", st.Active)
			if err := jobs.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("jobs did not complete in time", "error", err)
			} else {
				slog.Info("all jobs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Stop background jobs; autosave writes pending edits on the way out.
		cancelJobs()
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		<-autosaveDone
		files.Close()
		os.Exit(1)
	}

	<-shutdownDone
	<-autosaveDone
	slog.Info("server stopped")
}
