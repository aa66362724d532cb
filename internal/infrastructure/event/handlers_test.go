package event

import (
	"context"
	"testing"

	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func closedEvent() *maintenance.WorkRequestClosedEvent {
	return &maintenance.WorkRequestClosedEvent{
		BaseStatusChangeEvent: shared.NewBaseStatusChangeEvent(maintenance.EventTypeWorkRequestClosed,
			maintenance.AggregateTypeWorkRequest, uuid.New(), uuid.New(), "LOCKED", "CLOSED"),
	}
}

func TestLoggingHandler(t *testing.T) {
	t.Run("info level logs status changes", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		h := NewLoggingHandler(zap.New(core), NewLifecycleSerializer())

		require.NoError(t, h.Handle(context.Background(), closedEvent()))

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "WorkRequestClosed", fields["event_type"])
		assert.Equal(t, "CLOSED", fields["to_status"])
		assert.NotContains(t, fields, "payload")
	})

	t.Run("debug level attaches the payload", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		h := NewLoggingHandler(zap.New(core), NewLifecycleSerializer())

		require.NoError(t, h.Handle(context.Background(), closedEvent()))

		require.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].ContextMap()["payload"], `"to_status":"CLOSED"`)
	})
}

func TestLifecycleSerializer_RoundTrip(t *testing.T) {
	s := NewLifecycleSerializer()
	original := closedEvent()

	data, err := s.Serialize(original)
	require.NoError(t, err)
	decoded, err := s.Deserialize(maintenance.EventTypeWorkRequestClosed, data)
	require.NoError(t, err)

	change, ok := decoded.(shared.StatusChange)
	require.True(t, ok)
	assert.Equal(t, original.AggregateID(), change.AggregateID())
	assert.Equal(t, "LOCKED", change.FromStatus())

	_, err = s.Deserialize("Unknown", data)
	assert.Error(t, err)
}

func TestLifecycleSerializer_KnowsEveryLifecycleEvent(t *testing.T) {
	s := NewLifecycleSerializer()

	assert.Len(t, s.RegisteredTypes(), 22)
	assert.True(t, s.IsRegistered(maintenance.EventTypeWorkOrderCompleted))
	assert.False(t, s.IsRegistered("ProductCreated"))
	assert.IsIncreasing(t, s.RegisteredTypes())
}

func TestMetricsHandler_NilMetrics(t *testing.T) {
	assert.NoError(t, NewMetricsHandler(nil).Handle(context.Background(), closedEvent()))
}
