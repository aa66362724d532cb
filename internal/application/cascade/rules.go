package cascade

import (
	"context"
	"time"

	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/audit"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// InvoiceOnCompletionRule creates the draft invoice of a completed work order
type InvoiceOnCompletionRule struct {
	format invoicing.NumberFormat
	logger *zap.Logger
}

// NewInvoiceOnCompletionRule creates the rule numbering invoices with format
func NewInvoiceOnCompletionRule(format invoicing.NumberFormat, logger *zap.Logger) *InvoiceOnCompletionRule {
	return &InvoiceOnCompletionRule{format: format, logger: logger}
}

// Name implements Rule
func (r *InvoiceOnCompletionRule) Name() string { return "invoice_on_completion" }

// EventTypes implements Rule
func (r *InvoiceOnCompletionRule) EventTypes() []string {
	return []string{maintenance.EventTypeWorkOrderCompleted}
}

// Apply implements Rule
func (r *InvoiceOnCompletionRule) Apply(ctx context.Context, repos uow.Repositories, env uow.Envelope) error {
	e, ok := env.Event.(*maintenance.WorkOrderCompletedEvent)
	if !ok {
		return nil
	}
	orderID := e.AggregateID()

	exists, err := repos.Invoices().ExistsForOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if exists {
		r.logger.Debug("Invoice already exists for work order", zap.String("order_id", orderID.String()))
		return nil
	}

	scope := access.System().Scope()
	order, err := repos.WorkOrders().FindByID(ctx, scope, orderID)
	if err != nil {
		return err
	}
	agency, err := repos.Agencies().FindByID(ctx, scope, order.AgencyID)
	if err != nil {
		return err
	}

	year := invoiceYear(order.CompletedAt)
	seq, err := repos.InvoiceSequences().Next(ctx, order.AgencyID, year)
	if err != nil {
		return err
	}
	inv, err := invoicing.NewInvoiceForOrder(order, r.format, year, seq, agency.TaxRate, agency.CommissionRate)
	if err != nil {
		return err
	}
	if err := repos.Invoices().Create(ctx, inv); err != nil {
		return err
	}

	r.logger.Info("Draft invoice created for completed work order",
		zap.String("order_id", orderID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.Stringer("gross", inv.GrossMoney()),
	)
	return nil
}

func invoiceYear(completedAt *time.Time) int {
	if completedAt != nil {
		return completedAt.Year()
	}
	return time.Now().Year()
}

// SettleOnPaymentRule validates the order and closes the request of a paid invoice
type SettleOnPaymentRule struct {
	logger *zap.Logger
}

// NewSettleOnPaymentRule creates the payment settlement rule
func NewSettleOnPaymentRule(logger *zap.Logger) *SettleOnPaymentRule {
	return &SettleOnPaymentRule{logger: logger}
}

// Name implements Rule
func (r *SettleOnPaymentRule) Name() string { return "settle_on_payment" }

// EventTypes implements Rule
func (r *SettleOnPaymentRule) EventTypes() []string {
	return []string{invoicing.EventTypeInvoicePaid}
}

// Apply implements Rule
func (r *SettleOnPaymentRule) Apply(ctx context.Context, repos uow.Repositories, env uow.Envelope) error {
	e, ok := env.Event.(*invoicing.InvoicePaidEvent)
	if !ok {
		return nil
	}
	scope := access.System().Scope()

	order, err := repos.WorkOrders().FindByID(ctx, scope, e.OrderID)
	if err != nil {
		return err
	}
	if order.Status != maintenance.OrderStatusValidated {
		if err := order.Validate(); err != nil {
			return err
		}
		if err := repos.WorkOrders().SaveWithLock(ctx, order); err != nil {
			return err
		}
	}

	request, err := repos.WorkRequests().FindByID(ctx, scope, order.RequestID)
	if err != nil {
		return err
	}
	if request.Status != maintenance.RequestStatusClosed {
		if err := request.Close(); err != nil {
			return err
		}
		if err := repos.WorkRequests().SaveWithLock(ctx, request); err != nil {
			return err
		}
	}

	r.logger.Info("Paid invoice settled",
		zap.String("invoice_id", e.AggregateID().String()),
		zap.String("order_id", order.ID.String()),
		zap.String("request_id", request.ID.String()),
	)
	return nil
}

// ReleaseOnCancellationRule hands the request back to diffusion when its order is cancelled
type ReleaseOnCancellationRule struct {
	logger *zap.Logger
}

// NewReleaseOnCancellationRule creates the lock release rule
func NewReleaseOnCancellationRule(logger *zap.Logger) *ReleaseOnCancellationRule {
	return &ReleaseOnCancellationRule{logger: logger}
}

// Name implements Rule
func (r *ReleaseOnCancellationRule) Name() string { return "release_on_cancellation" }

// EventTypes implements Rule
func (r *ReleaseOnCancellationRule) EventTypes() []string {
	return []string{maintenance.EventTypeWorkOrderCancelled}
}

// Apply implements Rule
func (r *ReleaseOnCancellationRule) Apply(ctx context.Context, repos uow.Repositories, env uow.Envelope) error {
	e, ok := env.Event.(*maintenance.WorkOrderCancelledEvent)
	if !ok {
		return nil
	}
	request, err := repos.WorkRequests().FindByID(ctx, access.System().Scope(), e.RequestID)
	if err != nil {
		return err
	}
	if request.Status != maintenance.RequestStatusLocked {
		return nil
	}
	if err := request.Release(e.AggregateID()); err != nil {
		return err
	}
	if err := repos.WorkRequests().SaveWithLock(ctx, request); err != nil {
		return err
	}

	r.logger.Info("Work request released after order cancellation",
		zap.String("request_id", request.ID.String()),
		zap.String("order_id", e.AggregateID().String()),
	)
	return nil
}

// AuditTrailRule appends one status transition row per status change event
type AuditTrailRule struct {
	logger *zap.Logger
}

// NewAuditTrailRule creates the audit rule
func NewAuditTrailRule(logger *zap.Logger) *AuditTrailRule {
	return &AuditTrailRule{logger: logger}
}

// Name implements Rule
func (r *AuditTrailRule) Name() string { return "audit_trail" }

// EventTypes implements Rule; the audit rule sees every event
func (r *AuditTrailRule) EventTypes() []string { return nil }

// Apply implements Rule
func (r *AuditTrailRule) Apply(ctx context.Context, repos uow.Repositories, env uow.Envelope) error {
	change, ok := env.Event.(shared.StatusChange)
	if !ok {
		return nil
	}
	row := audit.NewStatusTransition(change, env.Actor)
	if err := repos.Audit().Append(ctx, row); err != nil {
		return err
	}
	r.logger.Debug("Status transition recorded",
		zap.String("aggregate_type", row.AggregateType),
		zap.String("aggregate_id", row.AggregateID.String()),
		zap.String("from", row.FromStatus),
		zap.String("to", row.ToStatus),
		zap.String("actor", env.Actor.String()),
	)
	return nil
}

// CurrencyPropagationRule rewrites inherited currencies after an agency changes its own
type CurrencyPropagationRule struct {
	logger *zap.Logger
}

// NewCurrencyPropagationRule creates the propagation rule
func NewCurrencyPropagationRule(logger *zap.Logger) *CurrencyPropagationRule {
	return &CurrencyPropagationRule{logger: logger}
}

// Name implements Rule
func (r *CurrencyPropagationRule) Name() string { return "currency_propagation" }

// EventTypes implements Rule
func (r *CurrencyPropagationRule) EventTypes() []string {
	return []string{tenancy.EventTypeAgencyCurrencyChanged}
}

// Apply implements Rule
func (r *CurrencyPropagationRule) Apply(ctx context.Context, repos uow.Repositories, env uow.Envelope) error {
	e, ok := env.Event.(*tenancy.AgencyCurrencyChangedEvent)
	if !ok {
		return nil
	}
	result, err := repos.CurrencyPropagation().Propagate(ctx, e.AggregateID(), e.NewCurrency)
	if err != nil {
		return err
	}
	r.logger.Info("Agency currency propagated",
		zap.String("agency_id", e.AggregateID().String()),
		zap.String("old_currency", e.OldCurrency.String()),
		zap.String("new_currency", e.NewCurrency.String()),
		zap.Int64("rows", result.Total()),
	)
	return nil
}

// DefaultRules returns the lifecycle rules in dispatch order
func DefaultRules(format invoicing.NumberFormat, logger *zap.Logger) []Rule {
	if logger == nil {
		logger = zap.NewNop()
	}
	return []Rule{
		NewInvoiceOnCompletionRule(format, logger),
		NewSettleOnPaymentRule(logger),
		NewReleaseOnCancellationRule(logger),
		NewCurrencyPropagationRule(logger),
		NewAuditTrailRule(logger),
	}
}
