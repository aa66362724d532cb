package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

// newTestMeter returns a meter backed by a manual reader for assertions
func newTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	require.True(t, ok, "metric %s not found", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.MetricsConfig{
		Collector:      telemetry.Collector{ServiceName: "fixflow-test"},
		ExportInterval: time.Minute,
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestCounter(t *testing.T) {
	mp, reader := newTestMeter(t)
	c, err := telemetry.NewCounter(mp.Meter("test"), "requests_total", "Requests", "{requests}")
	require.NoError(t, err)

	ctx := context.Background()
	c.Inc(ctx, telemetry.AttrOperation.String("accept"))
	c.Add(ctx, 4, telemetry.AttrOperation.String("accept"))
	c.Inc(ctx, telemetry.AttrOperation.String("start"))

	rm := collect(t, reader)
	assert.Equal(t, int64(5), sumOf(t, rm, "requests_total", telemetry.AttrOperation.String("accept")))
	assert.Equal(t, int64(6), sumOf(t, rm, "requests_total"))
}

func TestHistogram_RecordDuration(t *testing.T) {
	mp, reader := newTestMeter(t)
	h, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:       "op_seconds",
		Unit:       "s",
		Boundaries: telemetry.OperationDurationBuckets,
	})
	require.NoError(t, err)

	h.RecordDuration(context.Background(), 20*time.Millisecond)

	m, ok := findMetric(collect(t, reader), "op_seconds")
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.02, hist.DataPoints[0].Sum, 0.0001)
	assert.Equal(t, telemetry.OperationDurationBuckets, hist.DataPoints[0].Bounds)
}

func TestGauge_Record(t *testing.T) {
	mp, reader := newTestMeter(t)
	g, err := telemetry.NewGauge(mp.Meter("test"), "open_orders", "Open orders", "{orders}")
	require.NoError(t, err)

	g.Record(context.Background(), 3)
	g.Record(context.Background(), 7)

	m, ok := findMetric(collect(t, reader), "open_orders")
	require.True(t, ok)
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)
}
