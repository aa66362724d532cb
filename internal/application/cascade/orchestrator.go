// Package cascade holds the side-effect rules that run inside the unit of work
// that raised their triggering event.
package cascade

import (
	"context"
	"fmt"

	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Rule is a declarative side effect bound to event types.
// Rules must be idempotent: applying one twice to the same event leaves the same state.
type Rule interface {
	Name() string
	// EventTypes returns the event types the rule reacts to.
	// An empty slice means the rule receives all events.
	EventTypes() []string
	Apply(ctx context.Context, repos uow.Repositories, env uow.Envelope) error
}

// Orchestrator dispatches events to the rules registered for their type
type Orchestrator struct {
	byType   map[string][]Rule
	wildcard []Rule
	logger   *zap.Logger

	businessMetrics *telemetry.BusinessMetrics
}

// NewOrchestrator creates an orchestrator with rules registered in order
func NewOrchestrator(logger *zap.Logger, rules ...Rule) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		byType: make(map[string][]Rule),
		logger: logger,
	}
	for _, r := range rules {
		o.Register(r)
	}
	return o
}

// Register adds a rule
func (o *Orchestrator) Register(rule Rule) {
	types := rule.EventTypes()
	if len(types) == 0 {
		o.wildcard = append(o.wildcard, rule)
		return
	}
	for _, t := range types {
		o.byType[t] = append(o.byType[t], rule)
	}
}

// SetBusinessMetrics sets the business metrics recorder
func (o *Orchestrator) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	o.businessMetrics = bm
}

// Dispatch implements uow.Dispatcher.
// Rules run as the system principal; the events they raise are attributed to it.
func (o *Orchestrator) Dispatch(ctx context.Context, repos uow.Repositories, env uow.Envelope) error {
	rules := o.rulesFor(env.Event.EventType())
	if len(rules) == 0 {
		return nil
	}
	ruleCtx := access.WithPrincipal(ctx, access.System())

	for _, rule := range rules {
		ctx, span := telemetry.StartSpan(ruleCtx, "cascade."+rule.Name(),
			attribute.String(telemetry.SpanAttrRule, rule.Name()),
			attribute.String(telemetry.SpanAttrEventType, env.Event.EventType()),
		)
		err := rule.Apply(ctx, repos, env)
		if err != nil {
			telemetry.RecordError(span, err)
		}
		span.End()

		if o.businessMetrics != nil {
			o.businessMetrics.RecordCascadeRule(ctx, rule.Name(), err == nil)
		}
		if err != nil {
			o.logger.Warn("Cascade rule failed",
				zap.String("rule", rule.Name()),
				zap.String("event_type", env.Event.EventType()),
				zap.String("aggregate_id", env.Event.AggregateID().String()),
				zap.Error(err),
			)
			return fmt.Errorf("cascade rule %s: %w", rule.Name(), err)
		}
	}
	return nil
}

func (o *Orchestrator) rulesFor(eventType string) []Rule {
	typed := o.byType[eventType]
	if len(o.wildcard) == 0 {
		return typed
	}
	out := make([]Rule, 0, len(typed)+len(o.wildcard))
	out = append(out, typed...)
	return append(out, o.wildcard...)
}

var _ uow.Dispatcher = (*Orchestrator)(nil)
