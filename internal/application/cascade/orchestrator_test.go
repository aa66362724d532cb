package cascade_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fixflow/backend/internal/application/cascade"
	"github.com/fixflow/backend/internal/application/currency"
	appinvoicing "github.com/fixflow/backend/internal/application/invoicing"
	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
	"github.com/fixflow/backend/internal/application/operation"
	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/fixflow/backend/internal/infrastructure/persistence"
	"github.com/fixflow/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingRule notes every event it sees and optionally fails
type recordingRule struct {
	name  string
	types []string
	err   error
	seen  *[]string
}

func (r *recordingRule) Name() string         { return r.name }
func (r *recordingRule) EventTypes() []string { return r.types }

func (r *recordingRule) Apply(_ context.Context, _ uow.Repositories, env uow.Envelope) error {
	*r.seen = append(*r.seen, r.name+":"+env.Event.EventType())
	return r.err
}

func envelopeOf(eventType string) uow.Envelope {
	e := shared.NewBaseDomainEvent(eventType, "Test", uuid.New(), uuid.Nil)
	return uow.Envelope{Event: &e, Actor: access.System()}
}

func TestOrchestrator_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("typed rules run before wildcard rules", func(t *testing.T) {
		var seen []string
		o := cascade.NewOrchestrator(nil,
			&recordingRule{name: "audit", seen: &seen},
			&recordingRule{name: "invoice", types: []string{"Completed"}, seen: &seen},
			&recordingRule{name: "settle", types: []string{"Paid"}, seen: &seen},
		)

		require.NoError(t, o.Dispatch(ctx, nil, envelopeOf("Completed")))
		assert.Equal(t, []string{"invoice:Completed", "audit:Completed"}, seen)
	})

	t.Run("unmatched events reach no rule", func(t *testing.T) {
		var seen []string
		o := cascade.NewOrchestrator(nil, &recordingRule{name: "invoice", types: []string{"Completed"}, seen: &seen})

		require.NoError(t, o.Dispatch(ctx, nil, envelopeOf("Started")))
		assert.Empty(t, seen)
	})

	t.Run("a failing rule stops the dispatch", func(t *testing.T) {
		var seen []string
		boom := errors.New("boom")
		o := cascade.NewOrchestrator(nil,
			&recordingRule{name: "first", types: []string{"Completed"}, err: boom, seen: &seen},
			&recordingRule{name: "second", types: []string{"Completed"}, seen: &seen},
		)

		err := o.Dispatch(ctx, nil, envelopeOf("Completed"))
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "cascade rule first")
		assert.Equal(t, []string{"first:Completed"}, seen)
	})
}

func TestInvoiceOnCompletionRule_OneInvoicePerOrder(t *testing.T) {
	e := testutil.NewEngine(t)
	w := e.Seed(t, "EUR", "0.20", "0.10")
	ctx := context.Background()

	order := e.CompleteOrder(t, w, e.OpenRequest(t, w).ID, "100.00")
	first, err := e.Invoices.GetByOrder(ctx, w.Agency, order.ID)
	require.NoError(t, err)

	format, err := invoicing.NewNumberFormat(invoicing.DefaultNumberPrefix)
	require.NoError(t, err)
	o := cascade.NewOrchestrator(zap.NewNop(), cascade.NewInvoiceOnCompletionRule(format, zap.NewNop()))
	unitOfWork := persistence.NewGormUnitOfWork(e.DB)

	err = unitOfWork.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		completed, err := repos.WorkOrders().FindByID(ctx, access.System().Scope(), order.ID)
		if err != nil {
			return err
		}
		env := uow.Envelope{
			Event: maintenance.NewWorkOrderCompletedEvent(completed, maintenance.OrderStatusInProgress),
			Actor: access.System(),
		}
		for i := 0; i < 2; i++ {
			if err := o.Dispatch(ctx, repos, env); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	invoices, total, err := e.Invoices.List(ctx, w.Agency, appinvoicing.InvoiceListFilter{OrderID: &order.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, invoices, 1)
	assert.Equal(t, first.ID, invoices[0].ID)
	assert.Equal(t, first.Number, invoices[0].Number)
}

func TestOrchestrator_FailingRuleRollsBackTransition(t *testing.T) {
	e := testutil.NewEngine(t)
	w := e.Seed(t, "EUR", "0.20", "0.10")
	ctx := context.Background()

	accepted, err := e.Orders.Accept(ctx, w.Company, e.OpenRequest(t, w).ID, appmaintenance.AcceptWorkRequestRequest{})
	require.NoError(t, err)
	_, err = e.Orders.AssignTechnician(ctx, w.Company, accepted.ID, appmaintenance.AssignTechnicianRequest{TechnicianID: w.TechnicianID})
	require.NoError(t, err)
	_, err = e.Orders.Start(ctx, w.Technician, accepted.ID)
	require.NoError(t, err)

	var seen []string
	numbering := errors.New("numbering unavailable")
	failing := cascade.NewOrchestrator(nil, &recordingRule{
		name:  "invoice_on_completion",
		types: []string{maintenance.EventTypeWorkOrderCompleted},
		err:   numbering,
		seen:  &seen,
	})
	runner := operation.NewRunner(persistence.NewGormUnitOfWork(e.DB, persistence.WithDispatcher(failing)), nil)
	orders := appmaintenance.NewOrderService(runner, zap.NewNop())

	_, err = orders.Complete(ctx, w.Technician, accepted.ID, appmaintenance.CompleteWorkOrderRequest{ReportRef: "reports/leak.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, numbering)
	assert.Len(t, seen, 1)

	order, err := e.Orders.Get(ctx, w.Agency, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, string(maintenance.OrderStatusInProgress), order.Status, "completion rolled back with the rule")
	assert.Empty(t, order.ReportRef)

	_, total, err := e.Invoices.List(ctx, w.Agency, appinvoicing.InvoiceListFilter{OrderID: &accepted.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
}

// flipBackRule reverts every agency currency change, which raises another change
type flipBackRule struct{}

func (flipBackRule) Name() string { return "flip_back" }

func (flipBackRule) EventTypes() []string {
	return []string{tenancy.EventTypeAgencyCurrencyChanged}
}

func (flipBackRule) Apply(ctx context.Context, repos uow.Repositories, env uow.Envelope) error {
	e := env.Event.(*tenancy.AgencyCurrencyChangedEvent)
	agency, err := repos.Agencies().FindByID(ctx, access.System().Scope(), e.AggregateID())
	if err != nil {
		return err
	}
	if err := agency.ChangeCurrency(e.OldCurrency.String()); err != nil {
		return err
	}
	return repos.Agencies().SaveWithLock(ctx, agency)
}

func TestOrchestrator_EndlessCascadeIsCutOff(t *testing.T) {
	e := testutil.NewEngine(t)
	w := e.Seed(t, "EUR", "0.20", "0.10")
	ctx := context.Background()

	unitOfWork := persistence.NewGormUnitOfWork(e.DB,
		persistence.WithDispatcher(cascade.NewOrchestrator(nil, flipBackRule{})),
		persistence.WithMaxRounds(3),
	)
	service := currency.NewService(operation.NewRunner(unitOfWork, nil), zap.NewNop())

	_, err := service.ChangeAgencyCurrency(ctx, w.Agency, w.AgencyID, currency.ChangeCurrencyRequest{Currency: "GBP"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not settle after 3 rounds")

	agency, err := e.Directory.GetAgency(ctx, w.Agency, w.AgencyID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", agency.Currency)
}
