package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBusinessMetrics(t *testing.T, provider telemetry.LifecycleMetricsProvider) *telemetry.BusinessMetrics {
	t.Helper()
	mp, _ := newTestMeter(t)
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             mp.Meter("fixflow"),
		Logger:            zap.NewNop(),
		LifecycleProvider: provider,
	})
	require.NoError(t, err)
	return bm
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{})
	require.Error(t, err)
	assert.Nil(t, bm)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestBusinessMetrics_Counters(t *testing.T) {
	mp, reader := newTestMeter(t)
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: mp.Meter("fixflow")})
	require.NoError(t, err)

	ctx := context.Background()
	agencyID := uuid.New()

	bm.RecordTransition(ctx, "WorkOrder", "COMPLETED")
	bm.RecordTransition(ctx, "WorkOrder", "COMPLETED")
	bm.RecordTransition(ctx, "Invoice", "PAID")
	bm.RecordCascadeRule(ctx, "invoice_on_completion", true)
	bm.RecordCascadeRule(ctx, "invoice_on_completion", false)
	bm.RecordInvoiceCreated(ctx, agencyID, "EUR")
	bm.RecordInvoicePaid(ctx, agencyID, "EUR", decimal.RequireFromString("120.505"))
	bm.RecordPropagation(ctx, agencyID, 12)
	bm.RecordRejection(ctx, "AcceptWorkRequest", "CONFLICT")

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, rm, "fixflow_status_transition_total",
		telemetry.AttrAggregateType.String("WorkOrder"), telemetry.AttrToStatus.String("COMPLETED")))
	assert.Equal(t, int64(3), sumOf(t, rm, "fixflow_status_transition_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "fixflow_cascade_rule_total",
		telemetry.AttrRule.String("invoice_on_completion"), telemetry.AttrOutcome.String("failure")))
	assert.Equal(t, int64(1), sumOf(t, rm, "fixflow_invoice_created_total"))
	assert.Equal(t, int64(12051), sumOf(t, rm, "fixflow_invoice_paid_amount_total"))
	assert.Equal(t, int64(12), sumOf(t, rm, "fixflow_currency_propagated_rows_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "fixflow_operation_rejected_total",
		telemetry.AttrOperation.String("AcceptWorkRequest"), telemetry.AttrErrorKind.String("CONFLICT")))
}

type stubLifecycleProvider struct {
	calls  atomic.Int32
	counts map[uuid.UUID]int64
	err    error
}

func (p *stubLifecycleProvider) OpenOrdersByAgency(context.Context) (map[uuid.UUID]int64, error) {
	p.calls.Add(1)
	return p.counts, p.err
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	agencyID := uuid.New()
	provider := &stubLifecycleProvider{counts: map[uuid.UUID]int64{agencyID: 4}}

	mp, reader := newTestMeter(t)
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             mp.Meter("fixflow"),
		LifecycleProvider: provider,
	})
	require.NoError(t, err)

	bm.StartPeriodicCollection(context.Background(), time.Hour)
	defer bm.Stop()

	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := findMetric(collect(t, reader), "fixflow_open_work_orders")
		return ok
	}, time.Second, 5*time.Millisecond)

	// a second start is ignored and Stop is idempotent
	bm.StartPeriodicCollection(context.Background(), time.Hour)
	bm.Stop()
}

func TestBusinessMetrics_PeriodicCollectionToleratesProviderErrors(t *testing.T) {
	provider := &stubLifecycleProvider{err: errors.New("database unavailable")}
	bm := newBusinessMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	bm.StartPeriodicCollection(ctx, time.Hour)
	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
}
