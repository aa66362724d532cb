package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockWorkOrderRepository creates a GormWorkOrderRepository with a mocked SQL connection
func newMockWorkOrderRepository(t *testing.T) (*GormWorkOrderRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormWorkOrderRepository(gormDB), mock, mockDB
}

var workOrderColumns = []string{"id", "agency_id", "version", "request_id", "company_id", "status", "amount", "currency", "currency_explicit"}

// Scopes run when the statement executes, so the isolation predicate follows
// the caller's own conditions.
func TestGormWorkOrderRepository_FindByID(t *testing.T) {
	t.Run("agency scope filters on the owning agency", func(t *testing.T) {
		repo, mock, mockDB := newMockWorkOrderRepository(t)
		defer mockDB.Close()

		orderID, agencyID := uuid.New(), uuid.New()
		rows := sqlmock.NewRows(workOrderColumns).
			AddRow(orderID, agencyID, 3, uuid.New(), uuid.New(), "IN_PROGRESS", "120.00", "EUR", false)

		mock.ExpectQuery(`SELECT \* FROM "work_orders" WHERE work_orders.id = \$1 AND \(\(work_orders.agency_id = \$2\)\) ORDER BY .* LIMIT .*`).
			WithArgs(orderID, agencyID, 1).
			WillReturnRows(rows)

		scope := access.NewAgencyPrincipal(uuid.New(), agencyID).Scope()
		order, err := repo.FindByID(context.Background(), scope, orderID)

		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, 3, order.Version)
		assert.Equal(t, maintenance.OrderStatusInProgress, order.Status)
		assert.True(t, decimal.RequireFromString("120").Equal(order.Amount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is NOT_FOUND", func(t *testing.T) {
		repo, mock, mockDB := newMockWorkOrderRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "work_orders" WHERE work_orders.id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(orderID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		order, err := repo.FindByID(context.Background(), access.System().Scope(), orderID)

		assert.Nil(t, order)
		assert.True(t, shared.IsKind(err, shared.KindNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty scope matches nothing", func(t *testing.T) {
		repo, mock, mockDB := newMockWorkOrderRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "work_orders" WHERE work_orders.id = \$1 AND 1 = 0`).
			WithArgs(orderID, 1).
			WillReturnRows(sqlmock.NewRows(workOrderColumns))

		_, err := repo.FindByID(context.Background(), access.Scope{}, orderID)

		assert.True(t, shared.IsKind(err, shared.KindNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormWorkOrderRepository_SaveWithLock(t *testing.T) {
	newOrder := func() *maintenance.WorkOrder {
		o := &maintenance.WorkOrder{Status: maintenance.OrderStatusCompleted, Amount: decimal.NewFromInt(80)}
		o.ID = uuid.New()
		o.Version = 4
		o.UpdatedAt = time.Now()
		return o
	}

	t.Run("guarded update bumps the version", func(t *testing.T) {
		repo, mock, mockDB := newMockWorkOrderRepository(t)
		defer mockDB.Close()

		order := newOrder()
		mock.ExpectExec(`UPDATE "work_orders" SET .*"version"=.* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), order))
		assert.Equal(t, 5, order.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race reports stale state", func(t *testing.T) {
		repo, mock, mockDB := newMockWorkOrderRepository(t)
		defer mockDB.Close()

		order := newOrder()
		mock.ExpectExec(`UPDATE "work_orders" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), order)
		assert.ErrorIs(t, err, shared.ErrStaleState)
		assert.Equal(t, 4, order.Version, "version is untouched when nothing was written")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceSequenceRepository_Next(t *testing.T) {
	db := newSQLiteTestDatabase(t)
	ctx := context.Background()
	require.NoError(t, AutoMigrate(ctx, db.DB))
	repo := NewGormInvoiceSequenceRepository(db.DB)

	agencyID := uuid.New()
	for want := int64(1); want <= 3; want++ {
		got, err := repo.Next(ctx, agencyID, 2026)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.Next(ctx, agencyID, 2027)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "each year restarts the counter")

	got, err = repo.Next(ctx, uuid.New(), 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "agencies never share a counter")
}
