package event

import (
	"context"

	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LoggingHandler writes one log line per committed event.
// The serialized payload is attached at debug level only.
type LoggingHandler struct {
	logger     *zap.Logger
	serializer *EventSerializer
}

// NewLoggingHandler creates a handler logging every committed event
func NewLoggingHandler(l *zap.Logger, serializer *EventSerializer) *LoggingHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &LoggingHandler{logger: l.Named("events"), serializer: serializer}
}

// EventTypes implements shared.EventHandler; the handler receives all events
func (h *LoggingHandler) EventTypes() []string { return nil }

// Handle implements shared.EventHandler
func (h *LoggingHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	fields := append(logger.Fields(ctx),
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
		zap.String("aggregate_type", e.AggregateType()),
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.String("agency_id", e.AgencyID().String()),
	)
	if change, ok := e.(shared.StatusChange); ok {
		fields = append(fields,
			zap.String("from_status", change.FromStatus()),
			zap.String("to_status", change.ToStatus()),
		)
	}
	if h.serializer != nil && h.logger.Core().Enabled(zap.DebugLevel) {
		payload, err := h.serializer.Serialize(e)
		if err != nil {
			return err
		}
		h.logger.Debug("Event committed", append(fields, zap.ByteString("payload", payload))...)
		return nil
	}
	h.logger.Info("Event committed", fields...)
	return nil
}

// MetricsHandler turns committed events into business metrics, so rolled back
// operations are never counted.
type MetricsHandler struct {
	metrics *telemetry.BusinessMetrics
}

// NewMetricsHandler creates a handler recording into metrics
func NewMetricsHandler(metrics *telemetry.BusinessMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes implements shared.EventHandler; the handler receives all events
func (h *MetricsHandler) EventTypes() []string { return nil }

// Handle implements shared.EventHandler
func (h *MetricsHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	if h.metrics == nil {
		return nil
	}
	if change, ok := e.(shared.StatusChange); ok {
		h.metrics.RecordTransition(ctx, change.AggregateType(), change.ToStatus())
	}
	switch ev := e.(type) {
	case *invoicing.InvoiceCreatedEvent:
		h.metrics.RecordInvoiceCreated(ctx, ev.AgencyID(), ev.Currency.String())
	case *invoicing.InvoicePaidEvent:
		h.metrics.RecordInvoicePaid(ctx, ev.AgencyID(), ev.Currency.String(), ev.GrossAmount)
	}
	return nil
}

var (
	_ shared.EventHandler = (*LoggingHandler)(nil)
	_ shared.EventHandler = (*MetricsHandler)(nil)
)
