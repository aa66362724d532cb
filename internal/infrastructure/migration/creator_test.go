package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/fixflow/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add work orders", "add_work_orders"},
		{"Add-Work-Orders", "add_work_orders"},
		{"ADD_WORK_ORDERS", "add_work_orders"},
		{"add__work__orders", "add_work_orders"},
		{"Add Orders 123", "add_orders_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add invoice notes", "Free text on invoices")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_invoice_notes.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_invoice_notes.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add invoice notes")
	assert.Contains(t, string(up), "Free text on invoices")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback of add invoice notes")

	second, err := CreateMigration(dir, "index invoice status", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version, "versions follow the latest existing migration")

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_late.up.sql":        {},
		"000010_late.down.sql":      {},
		"000002_early.up.sql":       {},
		"000002_early.down.sql":     {},
		"README.md":                 {},
		"notes_draft.up.sql":        {},
		"000003_only_down.down.sql": {},
	}

	files, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, uint(2), files[0].Version)
	assert.Equal(t, "early", files[0].Name)
	assert.Equal(t, uint(10), files[1].Version)
	assert.Equal(t, "000010_late.down.sql", files[1].DownPath)
}

func TestEmbeddedSchema(t *testing.T) {
	files, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i, f := range files {
		assert.Equal(t, uint(i+1), f.Version, "versions are contiguous")
		_, err := migrations.FS.Open(f.DownPath)
		assert.NoError(t, err, "%s has no rollback", f.UpPath)
	}

	schema, err := migrations.FS.ReadFile("000002_create_maintenance.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(schema), "idx_work_orders_active_request")
}
