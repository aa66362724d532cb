package maintenance

import (
	"testing"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	agency *tenancy.Agency
	unit   *tenancy.Unit
	tenant *tenancy.Tenant
}

func newFixture(t *testing.T) fixture {
	agency, err := tenancy.NewAgency("Acme", "EUR", decimal.NewFromFloat(0.2), decimal.NewFromFloat(0.1))
	require.NoError(t, err)
	building, err := tenancy.NewBuilding(agency.ID, "North", "1 Main St")
	require.NoError(t, err)
	unit, err := tenancy.NewUnit(building, "1A")
	require.NoError(t, err)
	tenant, err := tenancy.NewTenant(agency, unit, "Jo", "")
	require.NoError(t, err)
	return fixture{agency: agency, unit: unit, tenant: tenant}
}

func (f fixture) request(t *testing.T) *WorkRequest {
	r, err := NewWorkRequest(f.tenant, f.unit, f.agency, "Plumbing", "Leaking tap", "", "")
	require.NoError(t, err)
	return r
}

func diffusedRequest(t *testing.T) *WorkRequest {
	r := newFixture(t).request(t)
	require.NoError(t, r.Diffuse(DiffusionBroadcast, nil))
	return r
}

func TestRequestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from RequestStatus
		to   RequestStatus
		ok   bool
	}{
		{RequestStatusOpen, RequestStatusDiffused, true},
		{RequestStatusOpen, RequestStatusLocked, false},
		{RequestStatusOpen, RequestStatusCancelled, true},
		{RequestStatusDiffused, RequestStatusLocked, true},
		{RequestStatusDiffused, RequestStatusClosed, false},
		{RequestStatusLocked, RequestStatusClosed, true},
		{RequestStatusLocked, RequestStatusDiffused, true},
		{RequestStatusLocked, RequestStatusCancelled, false},
		{RequestStatusClosed, RequestStatusOpen, false},
		{RequestStatusCancelled, RequestStatusOpen, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseRequestStatus(t *testing.T) {
	s, err := ParseRequestStatus("locked")
	require.NoError(t, err)
	assert.Equal(t, RequestStatusLocked, s)

	_, err = ParseRequestStatus("REOPENED")
	assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
}

func TestNewWorkRequest(t *testing.T) {
	f := newFixture(t)

	t.Run("opens with inherited currency", func(t *testing.T) {
		r := f.request(t)
		assert.Equal(t, RequestStatusOpen, r.Status)
		assert.Equal(t, f.agency.ID, r.AgencyID)
		assert.Equal(t, "plumbing", r.Category)
		assert.Equal(t, DiffusionBroadcast, r.DiffusionMode)
		assert.Equal(t, valueobject.Currency("EUR"), r.Currency)
		assert.False(t, r.Explicit)
		require.Len(t, r.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeWorkRequestCreated, r.GetDomainEvents()[0].EventType())
	})

	t.Run("keeps explicit currency", func(t *testing.T) {
		r, err := NewWorkRequest(f.tenant, f.unit, f.agency, "electrical", "", DiffusionRestricted, "USD")
		require.NoError(t, err)
		assert.Equal(t, valueobject.Currency("USD"), r.Currency)
		assert.True(t, r.Explicit)
	})

	t.Run("rejects a unit the tenant does not occupy", func(t *testing.T) {
		building, _ := tenancy.NewBuilding(f.agency.ID, "South", "")
		other, _ := tenancy.NewUnit(building, "9Z")
		_, err := NewWorkRequest(f.tenant, other, f.agency, "plumbing", "", "", "")
		assert.True(t, shared.IsKind(err, shared.KindForbidden))
	})

	t.Run("rejects empty category", func(t *testing.T) {
		_, err := NewWorkRequest(f.tenant, f.unit, f.agency, "  ", "", "", "")
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
	})
}

func TestWorkRequest_Diffuse(t *testing.T) {
	f := newFixture(t)

	t.Run("broadcast", func(t *testing.T) {
		r := f.request(t)
		require.NoError(t, r.Diffuse("", nil))
		assert.Equal(t, RequestStatusDiffused, r.Status)
		assert.NotNil(t, r.DiffusedAt)
		assert.Empty(t, r.TargetCompanyIDs)
	})

	t.Run("restricted requires targets", func(t *testing.T) {
		r := f.request(t)
		err := r.Diffuse(DiffusionRestricted, []uuid.UUID{uuid.Nil})
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
		assert.Equal(t, RequestStatusOpen, r.Status)
	})

	t.Run("restricted dedupes targets", func(t *testing.T) {
		r := f.request(t)
		c := uuid.New()
		require.NoError(t, r.Diffuse(DiffusionRestricted, []uuid.UUID{c, c}))
		assert.Equal(t, []uuid.UUID{c}, r.TargetCompanyIDs)
		assert.True(t, r.IsTargeted(c))
		assert.False(t, r.IsTargeted(uuid.New()))
	})

	t.Run("cannot diffuse twice", func(t *testing.T) {
		r := f.request(t)
		require.NoError(t, r.Diffuse("", nil))
		err := r.Diffuse("", nil)
		assert.True(t, shared.IsKind(err, shared.KindPreconditionFailed))
	})
}

func TestWorkRequest_OfferedTo(t *testing.T) {
	f := newFixture(t)
	company := uuid.New()
	linked := f.agency.ID
	elsewhere := uuid.New()

	t.Run("nothing is offered before diffusion", func(t *testing.T) {
		assert.False(t, f.request(t).OfferedTo(company, &linked))
	})

	t.Run("broadcast reaches linked companies only", func(t *testing.T) {
		r := f.request(t)
		require.NoError(t, r.Diffuse(DiffusionBroadcast, nil))
		assert.True(t, r.OfferedTo(company, &linked))
		assert.False(t, r.OfferedTo(company, &elsewhere))
		assert.False(t, r.OfferedTo(company, nil))
	})

	t.Run("restricted reaches targets only", func(t *testing.T) {
		r := f.request(t)
		require.NoError(t, r.Diffuse(DiffusionRestricted, []uuid.UUID{company}))
		assert.True(t, r.OfferedTo(company, nil))
		assert.False(t, r.OfferedTo(uuid.New(), &linked))
	})

	t.Run("a locked request stays offered", func(t *testing.T) {
		r := f.request(t)
		require.NoError(t, r.Diffuse(DiffusionBroadcast, nil))
		require.NoError(t, r.Lock(uuid.New()))
		assert.True(t, r.OfferedTo(company, &linked))
	})
}

func TestWorkRequest_Lock(t *testing.T) {
	t.Run("open request cannot be locked", func(t *testing.T) {
		r := newFixture(t).request(t)
		err := r.Lock(uuid.New())
		assert.True(t, shared.IsKind(err, shared.KindPreconditionFailed))
	})

	t.Run("locked request is a conflict", func(t *testing.T) {
		r := diffusedRequest(t)
		require.NoError(t, r.Lock(uuid.New()))
		assert.Equal(t, RequestStatusLocked, r.Status)
		err := r.Lock(uuid.New())
		assert.True(t, shared.IsKind(err, shared.KindConflict))
	})

	t.Run("release returns to diffused", func(t *testing.T) {
		r := diffusedRequest(t)
		require.NoError(t, r.Lock(uuid.New()))
		require.NoError(t, r.Release(uuid.New()))
		assert.Equal(t, RequestStatusDiffused, r.Status)
		assert.Nil(t, r.LockedAt)
	})
}

func TestWorkRequest_Close(t *testing.T) {
	r := diffusedRequest(t)
	assert.True(t, shared.IsKind(r.Close(), shared.KindPreconditionFailed))

	require.NoError(t, r.Lock(uuid.New()))
	require.NoError(t, r.Close())
	assert.Equal(t, RequestStatusClosed, r.Status)
	n := len(r.GetDomainEvents())

	require.NoError(t, r.Close())
	assert.Len(t, r.GetDomainEvents(), n, "closing twice raises no event")
}

func TestWorkRequest_Cancel(t *testing.T) {
	r := diffusedRequest(t)
	assert.True(t, shared.IsKind(r.Cancel(""), shared.KindValidationFailed))
	require.NoError(t, r.Cancel("resolved by tenant"))
	assert.Equal(t, RequestStatusCancelled, r.Status)
	assert.Equal(t, "resolved by tenant", r.CancelReason)

	locked := diffusedRequest(t)
	require.NoError(t, locked.Lock(uuid.New()))
	assert.True(t, shared.IsKind(locked.Cancel("too late"), shared.KindPreconditionFailed))
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusPending, OrderStatusInProgress, true},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusInProgress, OrderStatusCompleted, true},
		{OrderStatusInProgress, OrderStatusCancelled, true},
		{OrderStatusCompleted, OrderStatusValidated, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusValidated, OrderStatusInProgress, false},
		{OrderStatusValidated, OrderStatusCompleted, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewWorkOrder(t *testing.T) {
	r := diffusedRequest(t)
	companyID := uuid.New()

	t.Run("inherits the request currency", func(t *testing.T) {
		o, err := NewWorkOrder(r, companyID, decimal.RequireFromString("100.005"), "")
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPending, o.Status)
		assert.Equal(t, r.AgencyID, o.AgencyID)
		assert.Equal(t, r.ID, o.RequestID)
		assert.Equal(t, "100.01", o.Amount.StringFixed(2))
		assert.Equal(t, valueobject.Currency("EUR"), o.Currency)
		assert.False(t, o.Explicit)
	})

	t.Run("explicit currency", func(t *testing.T) {
		o, err := NewWorkOrder(r, companyID, decimal.NewFromInt(10), "gbp")
		require.NoError(t, err)
		assert.Equal(t, valueobject.Currency("GBP"), o.Currency)
		assert.True(t, o.Explicit)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := NewWorkOrder(r, companyID, decimal.NewFromInt(-1), "")
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
	})
}

func newOrder(t *testing.T) (*WorkOrder, *tenancy.Technician) {
	companyID := uuid.New()
	o, err := NewWorkOrder(diffusedRequest(t), companyID, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	tech, err := tenancy.NewTechnician(companyID, "Sam")
	require.NoError(t, err)
	return o, tech
}

func TestWorkOrder_AssignTechnician(t *testing.T) {
	t.Run("technician of another company is forbidden", func(t *testing.T) {
		o, _ := newOrder(t)
		stranger, _ := tenancy.NewTechnician(uuid.New(), "Max")
		err := o.AssignTechnician(stranger)
		assert.True(t, shared.IsKind(err, shared.KindForbidden))
		assert.Nil(t, o.TechnicianID)
	})

	t.Run("inactive technician", func(t *testing.T) {
		o, tech := newOrder(t)
		tech.Deactivate()
		err := o.AssignTechnician(tech)
		assert.True(t, shared.IsKind(err, shared.KindPreconditionFailed))
	})

	t.Run("reassign while in progress", func(t *testing.T) {
		o, tech := newOrder(t)
		require.NoError(t, o.AssignTechnician(tech))
		require.NoError(t, o.Start())
		other, _ := tenancy.NewTechnician(o.CompanyID, "Alex")
		require.NoError(t, o.AssignTechnician(other))
		assert.True(t, o.IsAssignedTo(other.ID))
	})
}

func TestWorkOrder_Lifecycle(t *testing.T) {
	o, tech := newOrder(t)

	err := o.Start()
	assert.True(t, shared.IsKind(err, shared.KindPreconditionFailed), "technician required")

	require.NoError(t, o.AssignTechnician(tech))
	require.NoError(t, o.Start())
	assert.Equal(t, OrderStatusInProgress, o.Status)
	assert.NotNil(t, o.StartedAt)

	amount := decimal.RequireFromString("120.50")
	require.NoError(t, o.Complete("reports/1.pdf", &amount))
	assert.Equal(t, OrderStatusCompleted, o.Status)
	assert.Equal(t, "reports/1.pdf", o.ReportRef)
	assert.True(t, o.Amount.Equal(amount))

	err = o.Complete("", nil)
	assert.True(t, shared.IsKind(err, shared.KindPreconditionFailed))

	require.NoError(t, o.Validate())
	assert.Equal(t, OrderStatusValidated, o.Status)
	require.NoError(t, o.Validate(), "validating twice is a no-op")

	assert.True(t, shared.IsKind(o.Cancel("nope"), shared.KindPreconditionFailed))

	var changes []string
	for _, e := range o.GetDomainEvents() {
		if sc, ok := e.(shared.StatusChange); ok {
			changes = append(changes, sc.FromStatus()+">"+sc.ToStatus())
		}
	}
	assert.Equal(t, []string{">PENDING", "PENDING>IN_PROGRESS", "IN_PROGRESS>COMPLETED", "COMPLETED>VALIDATED"}, changes)
}

func TestWorkOrder_ValidateRequiresCompleted(t *testing.T) {
	o, _ := newOrder(t)
	assert.True(t, shared.IsKind(o.Validate(), shared.KindPreconditionFailed))
}

func TestWorkOrder_Cancel(t *testing.T) {
	o, _ := newOrder(t)
	require.NoError(t, o.Cancel("customer unreachable"))
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.False(t, o.Status.IsActive())

	last := o.GetDomainEvents()[len(o.GetDomainEvents())-1]
	ev, ok := last.(*WorkOrderCancelledEvent)
	require.True(t, ok)
	assert.Equal(t, o.RequestID, ev.RequestID)
}
