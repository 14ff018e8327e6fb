package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/benchline/lims-core/platform/go/identity"
)

type ctxKey struct{}

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext retrieves the logger from context, if present.
func FromContext(ctx context.Context) (*zap.Logger, bool) {
	logger, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	return logger, ok
}

// FromContextOr returns the request-scoped logger when available, falling back to the provided default.
// When neither is set a no-op logger is returned.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := FromContext(ctx); ok && logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}

// WithIdentity enriches the logger with the caller identity found on ctx and stores it back.
func WithIdentity(ctx context.Context, base *zap.Logger) context.Context {
	logger := FromContextOr(ctx, base)
	if rc, ok := identity.FromContext(ctx); ok && !rc.IsZero() {
		logger = logger.With(
			zap.String("user_id", rc.UserID.String()),
			zap.String("client_id", rc.ClientID.String()),
			zap.String("role", rc.RoleName),
		)
	}
	return WithLogger(ctx, logger)
}
