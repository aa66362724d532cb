package main

import (
	"context"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// observability holds the telemetry providers of a running server. Each one
// is a no-op when its signal is disabled.
type observability struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// startObservability brings up tracing, metrics, log export and profiling,
// and returns log teed into the OTLP log pipeline when that is enabled.
// On error it shuts down whatever already started.
func startObservability(ctx context.Context, cfg *config.Config, log *zap.Logger) (*observability, *zap.Logger, error) {
	tc := cfg.Telemetry
	collector := telemetry.Collector{
		Endpoint:       tc.CollectorEndpoint,
		Insecure:       tc.Insecure,
		ServiceName:    tc.ServiceName,
		ServiceVersion: version,
	}
	obs := &observability{}

	var err error
	if obs.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Enabled:       tc.Enabled,
		Collector:     collector,
		SamplingRatio: tc.SamplingRatio,
	}, log); err != nil {
		return nil, log, err
	}
	if obs.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:   tc.Enabled,
		Collector: collector,
	}, log); err != nil {
		obs.shutdown(ctx, log)
		return nil, log, err
	}
	if obs.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:   tc.Enabled && tc.LogsEnabled,
		Collector: collector,
	}, log); err != nil {
		obs.shutdown(ctx, log)
		return nil, log, err
	}
	if obs.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           tc.Profiling.Enabled,
		ServerAddress:     tc.Profiling.ServerAddress,
		ApplicationName:   tc.ServiceName,
		BasicAuthUser:     tc.Profiling.BasicAuthUser,
		BasicAuthPassword: tc.Profiling.BasicAuthPassword,
		Contention:        tc.Profiling.Contention,
	}, log); err != nil {
		obs.shutdown(ctx, log)
		return nil, log, err
	}
	if obs.profiler.IsEnabled() && tc.Profiling.SpanProfiles {
		obs.tracer.EnableSpanProfiles()
	}

	if level, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		log = obs.logs.Bridge(log, level)
	}
	return obs, log, nil
}

// shutdown stops the providers in reverse start order so the last spans and
// log records of the shutdown itself are still exported.
func (o *observability) shutdown(ctx context.Context, log *zap.Logger) {
	if o.profiler != nil {
		if err := o.profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}
	if o.logs != nil {
		if err := o.logs.Shutdown(ctx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}
}
