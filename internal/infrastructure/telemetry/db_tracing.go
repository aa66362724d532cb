package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Queries slower than this get a slow_query event
	DBName          string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "fixflow",
	}
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin and the slow query annotator on db.
// It does nothing when tracing is disabled.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	annotator := &slowQueryAnnotator{threshold: cfg.SlowQueryThresh}
	if err := annotator.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

// slowQueryAnnotator marks spans of queries that exceeded the threshold
type slowQueryAnnotator struct {
	threshold time.Duration
}

func (a *slowQueryAnnotator) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (a *slowQueryAnnotator) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok || a.threshold <= 0 {
		return
	}
	if elapsed := time.Since(start); elapsed > a.threshold {
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", a.threshold.Milliseconds()),
		))
	}
}

func (a *slowQueryAnnotator) register(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("fixflow:slow_query_before_create", a.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("fixflow:slow_query_after_create", a.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("fixflow:slow_query_before_query", a.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("fixflow:slow_query_after_query", a.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("fixflow:slow_query_before_update", a.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("fixflow:slow_query_after_update", a.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("fixflow:slow_query_before_delete", a.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("fixflow:slow_query_after_delete", a.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("fixflow:slow_query_before_raw", a.before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("fixflow:slow_query_after_raw", a.after)
}
