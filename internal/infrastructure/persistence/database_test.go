package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database over a mocked PostgreSQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm pings once while opening
	mock.ExpectPing()
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), gormConfig(Options{}))
	require.NoError(t, err)

	db, err := wrap(gormDB)
	require.NoError(t, err)
	return db, mock, mockDB
}

func newSQLiteTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewSQLiteDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(assert.AnError)
	assert.ErrorIs(t, db.Ping(context.Background()), assert.AnError)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSQLiteDatabase_SingleWriter(t *testing.T) {
	db := newSQLiteTestDatabase(t)
	assert.Equal(t, 1, db.pool.Stats().MaxOpenConnections)
}

func TestGormConfig(t *testing.T) {
	cfg := gormConfig(Options{})
	assert.True(t, cfg.TranslateError)
	assert.True(t, cfg.SkipDefaultTransaction)
	assert.NotNil(t, cfg.Logger)
	assert.Equal(t, "UTC", cfg.NowFunc().Location().String())
}

func TestAutoMigrate(t *testing.T) {
	db := newSQLiteTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, AutoMigrate(ctx, db.DB))
	require.NoError(t, AutoMigrate(ctx, db.DB), "migrating twice is harmless")

	for _, table := range []string{
		"agencies", "service_companies", "technicians", "tenants", "buildings", "units",
		"user_accounts", "work_requests", "work_request_targets", "work_orders",
		"invoices", "invoice_lines", "invoice_sequences", "status_transitions",
	} {
		assert.True(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}

	for _, index := range []string{"idx_work_orders_active_request", "idx_invoices_agency_number"} {
		var count int64
		require.NoError(t, db.DB.Raw(
			`SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, index,
		).Scan(&count).Error)
		assert.Equal(t, int64(1), count, "missing index %s", index)
	}
}
