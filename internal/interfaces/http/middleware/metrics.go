package middleware

import (
	"context"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrorKindKey is the gin context key under which handlers record the
// domain error kind of a rejected request.
const ErrorKindKey = "error_kind"

// HTTPMetricsConfig holds configuration for the HTTP metrics middleware
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

type httpMetrics struct {
	requests       *telemetry.Counter
	duration       *telemetry.Histogram
	responseSize   *telemetry.Histogram
	activeRequests metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error
	if m.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests served", "{request}"); err != nil {
		return nil, err
	}
	if m.duration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.responseSize, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size",
		Unit:        "By",
		Boundaries:  []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 1000000},
	}); err != nil {
		return nil, err
	}
	if m.activeRequests, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics counts requests by route, status, actor role and domain error
// kind, and flags responses replayed from the idempotency store. Latency and
// size carry only method and route. Without an enabled provider it is a no-op.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"))
}

// HTTPMetricsWithMeter records on meter directly
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return passThrough
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		m.activeRequests.Add(ctx, 1)
		c.Next()
		m.activeRequests.Add(ctx, -1)

		m.record(ctx, c, time.Since(start))
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

func (m *httpMetrics) record(ctx context.Context, c *gin.Context, elapsed time.Duration) {
	method := telemetry.AttrHTTPMethod.String(c.Request.Method)
	route := telemetry.AttrHTTPRoute.String(routePattern(c))
	status := c.Writer.Status()

	attrs := []attribute.KeyValue{
		method, route,
		telemetry.AttrHTTPStatusCode.Int(status),
		telemetry.AttrHTTPStatusClass.String(StatusClass(status)),
	}
	if p, ok := GetPrincipal(c); ok {
		attrs = append(attrs, telemetry.AttrActorRole.String(string(p.Role)))
	}
	if kind := c.GetString(ErrorKindKey); kind != "" {
		attrs = append(attrs, telemetry.AttrErrorKind.String(kind))
	}
	if c.Writer.Header().Get(IdempotentReplayHeader) == "true" {
		attrs = append(attrs, telemetry.AttrReplayed.Bool(true))
	}
	m.requests.Inc(ctx, attrs...)

	m.duration.RecordDuration(ctx, elapsed, method, route)
	if size := c.Writer.Size(); size > 0 {
		m.responseSize.Record(ctx, float64(size), method, route)
	}
}

// routePattern keeps label cardinality bounded: the matched pattern, never the raw path
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// StatusClass groups a status code into 2xx, 3xx, 4xx or 5xx
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
