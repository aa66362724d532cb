package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
)

var (
	_ appmaintenance.ReportVerifier = (*MemoryReportStore)(nil)
	_ appmaintenance.ReportLinker   = (*MemoryReportStore)(nil)
)

// MemoryReportStore keeps report references in memory.
// It backs development setups without a bucket and tests.
type MemoryReportStore struct {
	// BaseURL prefixes generated download links
	BaseURL string

	mu      sync.RWMutex
	objects map[string]struct{}
}

// NewMemoryReportStore creates a store holding refs
func NewMemoryReportStore(refs ...string) *MemoryReportStore {
	s := &MemoryReportStore{
		BaseURL: "https://reports.invalid",
		objects: make(map[string]struct{}, len(refs)),
	}
	for _, ref := range refs {
		s.Put(ref)
	}
	return s
}

func normalizeRef(ref string) string {
	return strings.TrimLeft(strings.TrimSpace(ref), "/")
}

// Put records ref as stored
func (s *MemoryReportStore) Put(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[normalizeRef(ref)] = struct{}{}
}

// Exists reports whether ref was stored
func (s *MemoryReportStore) Exists(_ context.Context, ref string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[normalizeRef(ref)]
	return ok, nil
}

// DownloadURL returns a fake link carrying the expiry
func (s *MemoryReportStore) DownloadURL(ctx context.Context, ref string, ttl time.Duration) (string, time.Time, error) {
	ok, _ := s.Exists(ctx, ref)
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: %q is not stored", ErrInvalidRef, ref)
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("link lifetime must be positive")
	}
	expiresAt := time.Now().Add(ttl)
	link := s.BaseURL + "/" + url.PathEscape(normalizeRef(ref)) + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}
