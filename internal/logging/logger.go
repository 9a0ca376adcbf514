// Package logging configures log/slog for the server and the CLI and
// carries request-scoped loggers through contexts.
//
// Entries written while handling a request carry the chi request id, so
// every line of one request can be found together.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// Setup installs a logger writing to stdout as the slog default and
// returns it.
//
// Level: "debug", "info", "warn", "error" (default "info").
// Format: "text" or "json" (default "text"); use json where logs are
// shipped to a collector.
func Setup(level, format string) *slog.Logger {
	logger := New(os.Stdout, level, format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w. It leaves the slog default alone,
// which lets gearctl log to stderr and keep stdout for tables.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewContext returns a copy of ctx that carries logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or the default
// logger. Either way a chi request id in ctx is attached as request_id.
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("column added", "sheet_id", sheet.ID)
func FromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok || logger == nil {
		logger = slog.Default()
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithFields is FromContext plus operation fields, for work that logs
// several times:
//
//	log := logging.WithFields(ctx, "job", "csv_import", "sheet_id", sheet.ID)
//	log.Info("import started")
//	log.Info("import completed", "rows", added)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
