package cache

import (
	"context"
	"fmt"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

type storeOptions struct {
	logger   *zap.Logger
	fallback bool
}

// StoreOption configures NewIdempotencyStore
type StoreOption func(*storeOptions)

func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) { o.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// process memory. It does by default.
func WithInMemoryFallback(allow bool) StoreOption {
	return func(o *storeOptions) { o.fallback = allow }
}

// NewIdempotencyStore returns a Redis store when Redis is configured and
// reachable, and an in-memory store otherwise. With fallback disabled an
// unreachable Redis is an error.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, opts ...StoreOption) (IdempotencyStore, error) {
	o := storeOptions{logger: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled() {
		o.logger.Info("Redis not configured, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}
	store, err := DialRedisIdempotencyStore(ctx, cfg)
	switch {
	case err == nil:
		o.logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Addr()))
		return store, nil
	case !o.fallback:
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	o.logger.Warn("Redis unavailable, using in-memory idempotency store; retries reaching another instance are not recognized",
		zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
