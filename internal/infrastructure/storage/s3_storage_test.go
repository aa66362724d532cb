package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig(endpoint string) config.StorageConfig {
	return config.StorageConfig{
		Bucket:         "reports",
		Region:         "us-east-1",
		Endpoint:       endpoint,
		AccessKeyID:    "test-key",
		SecretKey:      "test-secret",
		ForcePathStyle: true,
	}
}

// fakeS3 answers HEAD requests for path style object URLs
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]bool
	denied   bool
	requests []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	switch {
	case f.denied:
		w.WriteHeader(http.StatusForbidden)
	case r.Method == http.MethodHead && f.objects[r.URL.Path]:
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeS3) deny() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denied = true
}

func (f *fakeS3) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newFakeStore(t *testing.T, objects ...string) (*S3ReportStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]bool{}}
	for _, o := range objects {
		fake.objects["/reports/"+o] = true
	}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3ReportStore(context.Background(), testStorageConfig(server.URL), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return store, fake
}

func TestNewS3ReportStore_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing bucket", func(t *testing.T) {
		cfg := testStorageConfig("")
		cfg.Bucket = ""
		_, err := NewS3ReportStore(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half a key pair", func(t *testing.T) {
		cfg := testStorageConfig("")
		cfg.SecretKey = ""
		_, err := NewS3ReportStore(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		_, err := NewS3ReportStore(ctx, testStorageConfig("not a url"))
		require.Error(t, err)
	})

	t.Run("valid config", func(t *testing.T) {
		store, err := NewS3ReportStore(ctx, testStorageConfig("http://localhost:9000"))
		require.NoError(t, err)
		assert.Equal(t, "reports", store.Bucket())
	})
}

func TestS3ReportStore_Key(t *testing.T) {
	store, err := NewS3ReportStore(context.Background(), testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "2026/leak.pdf", want: "2026/leak.pdf"},
		{ref: "/2026/leak.pdf", want: "2026/leak.pdf"},
		{ref: "  2026/leak.pdf ", want: "2026/leak.pdf"},
		{ref: "s3://reports/2026/leak.pdf", want: "2026/leak.pdf"},
		{ref: "s3://other/2026/leak.pdf", wantErr: true},
		{ref: "s3://reports/", wantErr: true},
		{ref: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := store.Key(tt.ref)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3ReportStore_Exists(t *testing.T) {
	ctx := context.Background()

	t.Run("stored report", func(t *testing.T) {
		store, fake := newFakeStore(t, "2026/leak.pdf")
		ok, err := store.Exists(ctx, "s3://reports/2026/leak.pdf")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"HEAD /reports/2026/leak.pdf"}, fake.seen())
	})

	t.Run("missing report", func(t *testing.T) {
		store, _ := newFakeStore(t)
		ok, err := store.Exists(ctx, "2026/missing.pdf")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("foreign bucket is missing without a request", func(t *testing.T) {
		store, fake := newFakeStore(t)
		ok, err := store.Exists(ctx, "s3://elsewhere/x.pdf")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, fake.seen())
	})

	t.Run("access denied is an error", func(t *testing.T) {
		store, fake := newFakeStore(t)
		fake.deny()
		ok, err := store.Exists(ctx, "2026/leak.pdf")
		require.Error(t, err)
		assert.False(t, ok)
	})
}

func TestS3ReportStore_DownloadURL(t *testing.T) {
	store, err := NewS3ReportStore(context.Background(), testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)

	link, expiresAt, err := store.DownloadURL(context.Background(), "s3://reports/2026/leak.pdf", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:9000/reports/2026/leak.pdf?"), link)
	assert.Contains(t, link, "X-Amz-Expires=3600")
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	_, _, err = store.DownloadURL(context.Background(), "", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidRef)
}
