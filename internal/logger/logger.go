// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context and carries a
// per-cycle ID through context.Context.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type ctxKey string

const cycleIDKey ctxKey = "cycle_id"

// Init creates and returns a structured logger for the given service.
// The logger outputs JSON to stdout with the service name embedded.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)

	// Set as default so log/slog.Info() etc. also use structured output
	slog.SetDefault(logger)

	return logger
}

// ParseLevel maps a LOG_LEVEL string to a slog.Level. Unknown values
// fall back to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// WithCycleID stores a cycle ID in the context for downstream propagation.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleID extracts the cycle ID from context. Returns "" if not set.
func CycleID(ctx context.Context) string {
	if v, ok := ctx.Value(cycleIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateCycleID creates a cycle ID from the symbol and start timestamp.
func GenerateCycleID(symbol string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", symbol, ts.UnixNano())
}

// LogWithCycle returns slog attributes including the cycle ID from context.
// Usage: slog.Info("msg", logger.LogWithCycle(ctx)...)
func LogWithCycle(ctx context.Context) []any {
	id := CycleID(ctx)
	if id == "" {
		return nil
	}
	return []any{slog.String("cycle_id", id)}
}
