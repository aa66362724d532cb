package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestActorValues(t *testing.T) {
	ctx := WithActor(WithRequestID(context.Background(), "req-1"), "user-1", "AGENCY_MANAGER", "agency-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "AGENCY_MANAGER", GetActorRole(ctx))
	assert.Equal(t, "agency-1", GetAgencyID(ctx))
	assert.Empty(t, GetAgencyID(context.Background()))
}

func TestL_InjectsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-9")
	ctx = WithActor(ctx, "user-2", "TECHNICIAN", "")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(ctx, "work_order.start")
	defer span.End()

	L(ctx).Info("work order started", zap.String("order_id", "o-1"))

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "TECHNICIAN", fields["actor_role"])
	assert.Equal(t, "user-2", fields["user_id"])
	assert.Equal(t, "o-1", fields["order_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.NotContains(t, fields, "agency_id")
}

func TestFields_Empty(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))
}
