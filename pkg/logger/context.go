package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// NewContext returns ctx carrying l as the request logger.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With returns ctx carrying the request logger extended with fields.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the request logger, or the process logger when ctx has none.
func From(ctx context.Context) *slog.Logger {
	if l, ok := attached(ctx); ok {
		return l
	}
	return LoggerWrapper()
}

// FromOr returns the request logger, or fallback when ctx has none.
func FromOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := attached(ctx); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return LoggerWrapper()
}

func attached(ctx context.Context) (*slog.Logger, bool) {
	if ctx == nil {
		return nil, false
	}
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	return l, ok
}
