// Package logging configures log/slog for the server and derives
// request- and session-scoped loggers from it.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the process-wide slog logger.
//
// Level is one of "debug", "info", "warn", "error" (default "info").
// Format is "text" or "json"; json suits log shippers, text suits a
// terminal.
func Setup(level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
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

// FromContext returns the default logger carrying the chi request id when
// the context has one, so every entry for a request can be correlated.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// ForSession returns a request-scoped logger carrying the session id and
// its dataset key. Handlers operating on one session log through this so
// entries across the session lifecycle share the same fields.
//
//	logging.ForSession(r.Context(), sess.ID, sess.DatasetKey).Info("export completed", "rows", n)
func ForSession(ctx context.Context, sessionID, datasetKey string) *slog.Logger {
	return FromContext(ctx).With(
		"session_id", sessionID,
		"dataset", datasetKey,
	)
}
