//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_UpDown(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	m := NewMigrator(t, db.Config)

	status, err := m.Status()
	require.NoError(t, err)
	assert.False(t, status.Dirty)
	assert.False(t, status.Pending())
	assert.Equal(t, status.Latest, status.Version)

	require.NoError(t, m.Down(ctx))
	assert.False(t, db.DB.Migrator().HasTable("work_orders"))

	require.NoError(t, m.Up(ctx))
	assert.True(t, db.DB.Migrator().HasTable("work_orders"))
	require.NoError(t, m.Up(ctx), "an up-to-date schema is not an error")
}

// Companies race to accept the same diffused request. Exactly one wins and
// the partial unique index leaves a single active order.
func TestConcurrentAccept(t *testing.T) {
	db := NewTestDB(t)
	e := testutil.NewEngineWithDB(t, db.DB)
	w := e.Seed(t, "EUR", "0.20", "0.10")
	ctx := context.Background()

	principals := []access.Principal{w.Company}
	for i := 0; i < 7; i++ {
		principals = append(principals, testutil.CompanyPrincipal(e.SeedCompany(t, w.AgencyID, ""), w.AgencyID))
	}
	request := e.OpenRequest(t, w)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, len(principals))
	)
	amount := decimal.NewFromInt(150)
	for i, p := range principals {
		wg.Add(1)
		go func(i int, p access.Principal) {
			defer wg.Done()
			<-start
			_, errs[i] = e.Orders.Accept(ctx, p, request.ID, appmaintenance.AcceptWorkRequestRequest{Amount: &amount})
		}(i, p)
	}
	close(start)
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		kind := shared.KindOf(err)
		assert.Contains(t, []shared.ErrorKind{shared.KindConflict, shared.KindPreconditionFailed}, kind, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, won, "exactly one company takes the request")

	var active int64
	require.NoError(t, db.DB.Table("work_orders").
		Where("request_id = ? AND status <> ?", request.ID, "CANCELLED").
		Count(&active).Error)
	assert.Equal(t, int64(1), active)

	got, err := e.Requests.Get(ctx, w.Agency, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "LOCKED", got.Status)
}

// Orders of one agency completed in parallel receive distinct consecutive invoice numbers.
func TestConcurrentCompletionNumbersInvoices(t *testing.T) {
	db := NewTestDB(t)
	e := testutil.NewEngineWithDB(t, db.DB)
	worlds := []testutil.World{
		e.Seed(t, "EUR", "0.20", "0.10"),
		e.Seed(t, "EUR", "0.20", "0.10"),
	}
	ctx := context.Background()

	type pending struct {
		world testutil.World
		id    uuid.UUID
	}
	const perAgency = 3
	var orders []pending
	amount := decimal.NewFromInt(100)
	for _, w := range worlds {
		for i := 0; i < perAgency; i++ {
			request := e.OpenRequest(t, w)
			order, err := e.Orders.Accept(ctx, w.Company, request.ID, appmaintenance.AcceptWorkRequestRequest{Amount: &amount})
			require.NoError(t, err)
			_, err = e.Orders.AssignTechnician(ctx, w.Company, order.ID, appmaintenance.AssignTechnicianRequest{TechnicianID: w.TechnicianID})
			require.NoError(t, err)
			_, err = e.Orders.Start(ctx, w.Technician, order.ID)
			require.NoError(t, err)
			orders = append(orders, pending{world: w, id: order.ID})
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, len(orders))
	for i, o := range orders {
		wg.Add(1)
		go func(i int, o pending) {
			defer wg.Done()
			_, errs[i] = e.Orders.Complete(ctx, o.world.Technician, o.id, appmaintenance.CompleteWorkOrderRequest{
				ReportRef: fmt.Sprintf("reports/%s.pdf", o.id),
			})
		}(i, o)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	numbers := map[uuid.UUID]map[string]bool{}
	for _, o := range orders {
		invoice, err := e.Invoices.GetByOrder(ctx, o.world.Agency, o.id)
		require.NoError(t, err)
		seen := numbers[o.world.AgencyID]
		if seen == nil {
			seen = map[string]bool{}
			numbers[o.world.AgencyID] = seen
		}
		assert.False(t, seen[invoice.Number], "duplicate invoice number %s", invoice.Number)
		seen[invoice.Number] = true
	}
	for _, w := range worlds {
		assert.Len(t, numbers[w.AgencyID], perAgency, "each agency numbers its own invoices")
	}
}
