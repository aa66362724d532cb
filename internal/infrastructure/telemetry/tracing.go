package telemetry

import (
	"context"
	"errors"

	"github.com/fixflow/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fixflow"

// Span attribute keys set by the engine
const (
	SpanAttrActorRole  = "actor.role"
	SpanAttrActorID    = "actor.id"
	SpanAttrEventCount = "event.count"
	SpanAttrEventType  = "event.type"
	SpanAttrRule       = "cascade.rule"
	SpanAttrErrorKind  = "error.kind"
	SpanAttrErrorCode  = "error.code"
)

// StartSpan starts an internal span on the engine tracer. The caller ends it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(tracerName).Start(ctx, name, opts...)
}

// StartOperationSpan starts the span of one engine operation, named
// service.method and tagged with the acting principal.
func StartOperationSpan(ctx context.Context, service, method, actorRole, actorID string) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method,
		attribute.String(SpanAttrActorRole, actorRole),
		attribute.String(SpanAttrActorID, actorID),
	)
}

// RecordError classifies err on span. A domain rejection (not found, invalid
// transition, forbidden) is an expected answer: it is tagged with its kind and
// code and leaves the status unset. Anything else marks the span as failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		span.SetAttributes(
			attribute.String(SpanAttrErrorKind, string(domainErr.Kind)),
			attribute.String(SpanAttrErrorCode, domainErr.Code),
		)
		span.AddEvent("rejected", trace.WithAttributes(attribute.String("message", domainErr.Message)))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks span as successful
func SetOK(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// TraceID returns the trace ID of the span in ctx, or "" without one
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
