package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/cache"
	"github.com/fixflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the client supplied key of a retryable write
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the idempotency store
	IdempotentReplayHeader = "Idempotent-Replay"
	// MaxIdempotencyKeyLength bounds client supplied keys
	MaxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store cache.IdempotencyStore
	// TTL is how long a completed response is replayed
	TTL time.Duration
	// LockTTL bounds how long a crashed request keeps its key claimed
	LockTTL time.Duration
	Logger  *zap.Logger
}

// Idempotency replays the response of a write that carries an
// Idempotency-Key already seen for the same caller, method and path. It must
// run after JWTAuthMiddleware so that keys are scoped to the account.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || cfg.Store == nil || !idempotentMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		storeKey := idempotencyScope(c) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		ctx := c.Request.Context()

		stored, err := cfg.Store.Begin(ctx, storeKey, cfg.LockTTL)
		switch {
		case errors.Is(err, cache.ErrInFlight):
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeIdempotencyInFlight,
					"A request with this Idempotency-Key is still running", GetRequestID(c)))
			return
		case err != nil:
			cfg.Logger.Warn("Idempotency store unavailable, serving request without replay protection",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			c.Next()
			return
		case stored != nil:
			c.Header(IdempotentReplayHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		resp := cache.StoredResponse{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		// The request context may already be past its deadline.
		bg := context.WithoutCancel(ctx)
		if resp.Replayable() {
			err = cfg.Store.Complete(bg, storeKey, resp, cfg.TTL)
		} else {
			err = cfg.Store.Release(bg, storeKey)
		}
		if err != nil {
			cfg.Logger.Warn("Failed to record idempotent response",
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", resp.Status),
				zap.Error(err))
		}
	}
}

func idempotentMethod(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func idempotencyScope(c *gin.Context) string {
	if p, ok := GetPrincipal(c); ok {
		return p.AccountID.String()
	}
	return "anonymous"
}

// recordingWriter keeps a copy of the response body
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
