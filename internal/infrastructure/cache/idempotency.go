// Package cache keeps the responses of idempotent API calls so that a client
// retrying a lifecycle transition with the same Idempotency-Key gets the
// original answer instead of a second transition or a confusing rejection.
package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrInFlight is returned by Begin while another request holds the key
var ErrInFlight = errors.New("idempotency key is in use by a running request")

// StoredResponse is the replayable part of an HTTP response
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Replayable reports whether the response is worth replaying. Server errors
// are not: the client should be free to retry them.
func (r StoredResponse) Replayable() bool {
	return r.Status > 0 && r.Status < http.StatusInternalServerError
}

// IdempotencyStore claims idempotency keys and keeps the response of completed ones
type IdempotencyStore interface {
	// Begin claims key for lockTTL. It returns the stored response when the
	// key already completed, ErrInFlight when another request holds it, and
	// (nil, nil) when the caller now owns the key.
	Begin(ctx context.Context, key string, lockTTL time.Duration) (*StoredResponse, error)

	// Complete stores the response of an owned key for ttl
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error

	// Release gives up an owned key without storing a response
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
