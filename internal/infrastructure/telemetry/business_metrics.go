package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when business metrics are built without a meter
var ErrMeterNil = errors.New("business metrics need a meter")

// defaultCollectInterval paces gauge collection when none is given
const defaultCollectInterval = 5 * time.Minute

// BusinessMetrics tracks the maintenance lifecycle: status transitions,
// cascade rule outcomes, invoicing and currency propagation.
type BusinessMetrics struct {
	logger *zap.Logger

	transitionTotal     *Counter
	cascadeRuleTotal    *Counter
	invoiceCreatedTotal *Counter
	invoicePaidCents    *Counter
	propagatedRowsTotal *Counter
	rejectionTotal      *Counter
	operationDuration   *Histogram
	openOrders          *Gauge

	lifecycle LifecycleMetricsProvider
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
}

// LifecycleMetricsProvider reports point-in-time lifecycle counts for gauges
type LifecycleMetricsProvider interface {
	// OpenOrdersByAgency counts the work orders not yet validated or cancelled, per agency
	OpenOrdersByAgency(ctx context.Context) (map[uuid.UUID]int64, error)
}

type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	LifecycleProvider LifecycleMetricsProvider
}

// NewBusinessMetrics registers the lifecycle instruments on cfg.Meter
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{
		logger:    cfg.Logger,
		lifecycle: cfg.LifecycleProvider,
		stop:      make(chan struct{}),
	}
	if bm.logger == nil {
		bm.logger = zap.NewNop()
	}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&bm.transitionTotal, "fixflow_status_transition_total", "Lifecycle status transitions", "{transitions}"},
		{&bm.cascadeRuleTotal, "fixflow_cascade_rule_total", "Cascade rule applications", "{applications}"},
		{&bm.invoiceCreatedTotal, "fixflow_invoice_created_total", "Invoices created", "{invoices}"},
		{&bm.invoicePaidCents, "fixflow_invoice_paid_amount_total", "Gross amount of paid invoices in cents", "{cents}"},
		{&bm.propagatedRowsTotal, "fixflow_currency_propagated_rows_total", "Dependent rows rewritten by currency propagation", "{rows}"},
		{&bm.rejectionTotal, "fixflow_operation_rejected_total", "Engine operations rejected with a domain error", "{operations}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	if bm.operationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "fixflow_operation_duration_seconds",
		Description: "Duration of engine operations including their cascade",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.openOrders, err = NewGauge(cfg.Meter,
		"fixflow_open_work_orders", "Work orders neither validated nor cancelled", "{orders}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordTransition records one status transition of an aggregate
func (bm *BusinessMetrics) RecordTransition(ctx context.Context, aggregateType, toStatus string) {
	bm.transitionTotal.Inc(ctx,
		AttrAggregateType.String(aggregateType),
		AttrToStatus.String(toStatus),
	)
}

// RecordCascadeRule records the outcome of one cascade rule application
func (bm *BusinessMetrics) RecordCascadeRule(ctx context.Context, rule string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	bm.cascadeRuleTotal.Inc(ctx,
		AttrRule.String(rule),
		AttrOutcome.String(outcome),
	)
}

// RecordInvoiceCreated records an invoice creation
func (bm *BusinessMetrics) RecordInvoiceCreated(ctx context.Context, agencyID uuid.UUID, currency string) {
	bm.invoiceCreatedTotal.Inc(ctx,
		AttrAgencyID.String(agencyID.String()),
		AttrCurrency.String(currency),
	)
}

// RecordInvoicePaid records the gross amount of a paid invoice, in cents
func (bm *BusinessMetrics) RecordInvoicePaid(ctx context.Context, agencyID uuid.UUID, currency string, gross decimal.Decimal) {
	cents := gross.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	bm.invoicePaidCents.Add(ctx, cents,
		AttrAgencyID.String(agencyID.String()),
		AttrCurrency.String(currency),
	)
}

// RecordPropagation records the number of rows one propagation pass rewrote
func (bm *BusinessMetrics) RecordPropagation(ctx context.Context, agencyID uuid.UUID, rows int64) {
	bm.propagatedRowsTotal.Add(ctx, rows, AttrAgencyID.String(agencyID.String()))
}

// RecordRejection records an operation that ended in a domain error of the given kind
func (bm *BusinessMetrics) RecordRejection(ctx context.Context, operation, kind string) {
	bm.rejectionTotal.Inc(ctx,
		AttrOperation.String(operation),
		AttrErrorKind.String(kind),
	)
}

// RecordOperationDuration records how long an engine operation took
func (bm *BusinessMetrics) RecordOperationDuration(ctx context.Context, operation string, d time.Duration) {
	bm.operationDuration.RecordDuration(ctx, d, AttrOperation.String(operation))
}

// RecordOpenOrders records the open work order gauge of an agency
func (bm *BusinessMetrics) RecordOpenOrders(ctx context.Context, agencyID uuid.UUID, count int64) {
	bm.openOrders.Record(ctx, count, AttrAgencyID.String(agencyID.String()))
}

// StartPeriodicCollection samples the lifecycle gauges now and then every
// interval until Stop is called or ctx ends. Only the first call starts a loop.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultCollectInterval
	}
	bm.startOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				bm.collectLifecycleMetrics(ctx)
				select {
				case <-bm.stop:
					return
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	})
}

func (bm *BusinessMetrics) collectLifecycleMetrics(ctx context.Context) {
	if bm.lifecycle == nil {
		return
	}
	open, err := bm.lifecycle.OpenOrdersByAgency(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count open work orders", zap.Error(err))
		return
	}
	for agencyID, count := range open {
		bm.RecordOpenOrders(ctx, agencyID, count)
	}
}

// Stop ends periodic collection. It is safe to call more than once.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() { close(bm.stop) })
}
