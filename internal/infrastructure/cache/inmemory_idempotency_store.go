package cache

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is the minimum time between two passes over expired keys
const sweepInterval = time.Minute

// claim is a held key. A nil response means the owning request is still running.
type claim struct {
	until time.Time
	resp  *StoredResponse
}

func (c claim) live(now time.Time) bool { return now.Before(c.until) }

// InMemoryIdempotencyStore keeps keys in process memory. Retries that reach
// another API instance are not recognized, so it serves single instance
// deployments and tests. Expired keys are swept while claiming new ones.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	claims    map[string]claim
	now       func() time.Time
	nextSweep time.Time
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		claims: make(map[string]claim),
		now:    time.Now,
	}
}

func (s *InMemoryIdempotencyStore) Begin(_ context.Context, key string, lockTTL time.Duration) (*StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !now.Before(s.nextSweep) {
		s.sweep(now)
	}
	if c, ok := s.claims[key]; ok && c.live(now) {
		if c.resp == nil {
			return nil, ErrInFlight
		}
		replay := *c.resp
		return &replay, nil
	}
	s.claims[key] = claim{until: now.Add(lockTTL)}
	return nil, nil
}

func (s *InMemoryIdempotencyStore) Complete(_ context.Context, key string, resp StoredResponse, ttl time.Duration) error {
	resp.Body = append([]byte(nil), resp.Body...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[key] = claim{until: s.now().Add(ttl), resp: &resp}
	return nil
}

// Release drops a running claim. Completed keys are kept.
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.claims[key]; ok && c.resp == nil {
		delete(s.claims, key)
	}
	return nil
}

func (s *InMemoryIdempotencyStore) Close() error { return nil }

// sweep drops expired claims; the caller holds mu
func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	for key, c := range s.claims {
		if !c.live(now) {
			delete(s.claims, key)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}

// Size counts the live claims
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, c := range s.claims {
		if c.live(now) {
			n++
		}
	}
	return n
}

var _ IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
