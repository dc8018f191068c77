// Package logger builds the service's slog logger and carries request-scoped
// loggers through context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ctxKey struct{}

// Config selects level, destination and encoding.
type Config struct {
	Level      slog.Level
	Output     io.Writer
	JSONFormat bool
}

// New returns a logger writing text, or JSON when cfg.JSONFormat is set.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	return slog.New(handler).With("service", "granola-api")
}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Audit records a security-relevant event with the request-scoped logger.
func Audit(ctx context.Context, event string, args ...any) {
	FromContext(ctx).InfoContext(ctx, "audit", append([]any{"event", event}, args...)...)
}
