package invoicing_test

import (
	"context"
	"testing"

	appinvoicing "github.com/fixflow/backend/internal/application/invoicing"
	apptenancy "github.com/fixflow/backend/internal/application/tenancy"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_EditRecalculatesTotals(t *testing.T) {
	e := testutil.NewEngine(t, testutil.WithInvoicePrefix("fac"))
	w := e.Seed(t, "EUR", "0.20", "0.10")
	ctx := context.Background()

	request := e.OpenRequest(t, w)
	order := e.CompleteOrder(t, w, request.ID, "100.00")
	draft, err := e.Invoices.GetByOrder(ctx, w.Company, order.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^FAC-\d{4}-00001$`, draft.Number)

	edited, err := e.Invoices.Edit(ctx, w.Company, draft.ID, appinvoicing.EditInvoiceRequest{
		Lines: []appinvoicing.InvoiceLineInput{
			{Description: "Labour", Quantity: decimal.RequireFromString("2"), UnitPrice: decimal.RequireFromString("45.50")},
			{Description: "Washer", Quantity: decimal.RequireFromString("3"), UnitPrice: decimal.RequireFromString("1.30")},
		},
	})
	require.NoError(t, err)
	require.Len(t, edited.Lines, 2)
	assert.True(t, edited.NetAmount.Equal(decimal.RequireFromString("94.90")), edited.NetAmount.String())
	assert.True(t, edited.TaxAmount.Equal(decimal.RequireFromString("18.98")), edited.TaxAmount.String())
	assert.True(t, edited.GrossAmount.Equal(decimal.RequireFromString("113.88")), edited.GrossAmount.String())
	assert.True(t, edited.CommissionAmount.Equal(decimal.RequireFromString("9.49")), edited.CommissionAmount.String())

	t.Run("rates are snapshotted at creation", func(t *testing.T) {
		_, err := e.Directory.SetAgencyRates(ctx, w.Agency, w.AgencyID, apptenancy.SetRatesRequest{TaxRate: decimal.RequireFromString("0.50"), CommissionRate: decimal.RequireFromString("0.50")})
		require.NoError(t, err)
		again, err := e.Invoices.Get(ctx, w.Company, draft.ID)
		require.NoError(t, err)
		assert.True(t, again.TaxRate.Equal(decimal.RequireFromString("0.20")))
	})

	t.Run("an empty line set is rejected", func(t *testing.T) {
		_, err := e.Invoices.Edit(ctx, w.Company, draft.ID, appinvoicing.EditInvoiceRequest{Lines: []appinvoicing.InvoiceLineInput{}})
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed), "got %v", err)
	})
}

func TestInvoiceService_RoleGates(t *testing.T) {
	e := testutil.NewEngine(t)
	w := e.Seed(t, "EUR", "0.20", "0.10")
	ctx := context.Background()

	request := e.OpenRequest(t, w)
	order := e.CompleteOrder(t, w, request.ID, "40.00")
	draft, err := e.Invoices.GetByOrder(ctx, w.Company, order.ID)
	require.NoError(t, err)

	_, err = e.Invoices.Send(ctx, w.Agency, draft.ID)
	assert.True(t, shared.IsKind(err, shared.KindForbidden), "agency cannot send: %v", err)

	_, err = e.Invoices.SetStatus(ctx, w.Agency, draft.ID, appinvoicing.SetInvoiceStatusRequest{Status: "PAID"})
	assert.True(t, shared.IsKind(err, shared.KindPreconditionFailed), "draft cannot be paid: %v", err)

	_, err = e.Invoices.Get(ctx, w.Tenant, draft.ID)
	assert.True(t, shared.IsKind(err, shared.KindNotFound), "tenants do not see invoices: %v", err)

	sent, err := e.Invoices.Send(ctx, w.Company, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "SENT", sent.Status)
	require.NotNil(t, sent.SentAt)

	again, err := e.Invoices.Send(ctx, w.Company, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, sent.Version, again.Version, "sending twice is a no-op")

	_, err = e.Invoices.SetStatus(ctx, w.Company, draft.ID, appinvoicing.SetInvoiceStatusRequest{Status: "PAID"})
	assert.True(t, shared.IsKind(err, shared.KindForbidden), "company cannot settle: %v", err)
}
