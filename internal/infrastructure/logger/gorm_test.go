package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")

	t.Run("errors carry the request id", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), sqlFn("UPDATE work_orders SET status = 'ACCEPTED'", 0), errors.New("deadlock"))

		entries := logs.FilterMessage("SQL error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	})

	t.Run("record not found is skipped by default", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), sqlFn("SELECT * FROM invoices WHERE id = 1", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("record not found can be logged", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn, WithRecordNotFoundLogging())
		l.Trace(ctx, time.Now(), sqlFn("SELECT * FROM invoices WHERE id = 1", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.FilterMessage("SQL error").Len())
	})

	t.Run("slow statements warn with the threshold", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		l.Trace(ctx, time.Now().Add(-time.Second), sqlFn("SELECT * FROM invoices", 3), nil)

		entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
		require.Len(t, entries, 1)
		assert.Equal(t, time.Millisecond, entries[0].ContextMap()["threshold"])
	})

	t.Run("a zero threshold keeps the default", func(t *testing.T) {
		l, _ := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(0))
		assert.Equal(t, defaultSlowThreshold, l.slowThreshold)
	})

	t.Run("fast statements stay quiet in warn mode", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		assert.Zero(t, logs.Len())
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Info)
		l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), errors.New("boom"))
		assert.Zero(t, logs.Len())
	})

	t.Run("info mode logs statements at debug", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Info)
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.DebugLevel).Len())
	})

	t.Run("long statements are truncated", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Info, WithMaxSQLLength(16))
		l.Trace(ctx, time.Now(), sqlFn("INSERT INTO status_transitions "+strings.Repeat("(?),", 50), 50), nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "INSERT INTO stat...(truncated)", entries[0].ContextMap()["sql"])
	})
}

func TestGormLogger_Messages(t *testing.T) {
	l, logs := newObservedGormLogger(gormlogger.Warn)
	ctx := WithRequestID(context.Background(), "req-9")

	l.Info(ctx, "ignored %d", 1)
	l.Warn(ctx, "replacing callback %s", "gorm:create")
	l.Error(ctx, "failed to parse %s", "value")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "replacing callback gorm:create", entries[0].Message)
	assert.Equal(t, "req-9", entries[1].ContextMap()["request_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("ERROR"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
