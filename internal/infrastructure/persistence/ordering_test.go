package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestSortColumns_Column(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		expected  string
	}{
		{"empty falls back to created_at", "", "created_at"},
		{"common column", "updated_at", "updated_at"},
		{"entity column", "gross_amount", "gross_amount"},
		{"surrounding whitespace", "  number  ", "number"},
		{"unknown column", "tax_rate", "created_at"},
		{"case sensitive", "NUMBER", "created_at"},
		{"injection attempt", "number; DROP TABLE invoices;--", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InvoiceSortFields.Column(tt.requested))
		})
	}
}

func TestDescending(t *testing.T) {
	assert.True(t, descending(""))
	assert.True(t, descending("DESC"))
	assert.True(t, descending("ASC; DROP TABLE work_orders;--"))
	assert.False(t, descending("asc"))
	assert.False(t, descending("  ASC "))
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		DryRun:                 true,
	})
	require.NoError(t, err)
	return db
}

func TestListQuery_OrdersWithIDTieBreaker(t *testing.T) {
	db := dryRunDB(t)

	var rows []map[string]any
	stmt := listQuery(db.Table("invoices"), "invoices", shared.Filter{
		Page: 2, PageSize: 10, OrderBy: "gross_amount", OrderDir: "asc",
	}, invoiceFilterColumns, InvoiceSortFields).Find(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, `ORDER BY "invoices"."gross_amount","invoices"."id"`)
	assert.Regexp(t, `LIMIT \$\d+ OFFSET \$\d+`, sql)
	assert.Equal(t, []any{10, 10}, stmt.Vars)
}

func TestListQuery_DefaultsToNewestFirst(t *testing.T) {
	db := dryRunDB(t)

	var rows []map[string]any
	stmt := listQuery(db.Table("work_orders"), "work_orders", shared.Filter{
		OrderBy: "id",
	}, workOrderFilterColumns, WorkOrderSortFields).Find(&rows).Statement

	assert.Contains(t, stmt.SQL.String(), `ORDER BY "work_orders"."id" DESC`)
	assert.NotContains(t, stmt.SQL.String(), `"work_orders"."id" DESC,`)
}
