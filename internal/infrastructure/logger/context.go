package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	agencyIDKey  contextKey = "agency_id"
	actorRoleKey contextKey = "actor_role"
	userIDKey    contextKey = "user_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID used to correlate a request's log lines
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithActor stores who performs the current operation: the user, their role
// and the agency they act within. Empty values are left out of log lines.
func WithActor(ctx context.Context, userID, role, agencyID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, actorRoleKey, role)
	return context.WithValue(ctx, agencyIDKey, agencyID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// GetAgencyID retrieves the acting agency ID from context
func GetAgencyID(ctx context.Context) string {
	return stringValue(ctx, agencyIDKey)
}

// GetActorRole retrieves the acting role from context
func GetActorRole(ctx context.Context) string {
	return stringValue(ctx, actorRoleKey)
}

// GetUserID retrieves the acting user ID from context
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, userIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// Fields returns the correlation fields carried by ctx: trace and span IDs,
// request ID and actor.
func Fields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	for _, kv := range []struct {
		name string
		key  contextKey
	}{
		{"request_id", requestIDKey},
		{"agency_id", agencyIDKey},
		{"actor_role", actorRoleKey},
		{"user_id", userIDKey},
	} {
		if v := stringValue(ctx, kv.key); v != "" {
			fields = append(fields, zap.String(kv.name, v))
		}
	}
	return fields
}

// L returns the context's logger enriched with its correlation fields.
// Usage: logger.L(ctx).Info("work order accepted", zap.String("order_id", id))
func L(ctx context.Context) *zap.Logger {
	return FromContext(ctx).With(Fields(ctx)...)
}
