package logging

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

var defaultLogger = slog.Default()

// FromContext returns the logger carried by ctx, or the process default.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, defaultLogger)
}

// FromContextOr is FromContext with an explicit fallback, for components that
// hold their own component-scoped logger.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx == nil {
		return fallback
	}

	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}

	return fallback
}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// With attaches args to the context logger, so every later log line for
// this request or sync run carries them.
func With(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}

// SetDefault installs logger as both the context fallback and slog's default.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}
