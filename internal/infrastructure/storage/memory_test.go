package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReportStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReportStore("/2026/leak.pdf")

	ok, err := store.Exists(ctx, "2026/leak.pdf")
	require.NoError(t, err)
	assert.True(t, ok, "leading slashes are not significant")

	ok, _ = store.Exists(ctx, "2026/other.pdf")
	assert.False(t, ok)

	store.Put("2026/other.pdf")
	ok, _ = store.Exists(ctx, "2026/other.pdf")
	assert.True(t, ok)

	link, expiresAt, err := store.DownloadURL(ctx, "2026/leak.pdf", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, store.BaseURL+"/"))
	assert.True(t, expiresAt.After(time.Now()))

	_, _, err = store.DownloadURL(ctx, "missing.pdf", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidRef)
}
