package tenancy

import (
	"testing"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgency(t *testing.T, currency string) *Agency {
	a, err := NewAgency("Acme Lettings", currency, decimal.NewFromFloat(0.2), decimal.NewFromFloat(0.1))
	require.NoError(t, err)
	return a
}

func TestNewAgency(t *testing.T) {
	t.Run("starts pending with normalized currency", func(t *testing.T) {
		a := newTestAgency(t, "eur")
		assert.Equal(t, valueobject.Currency("EUR"), a.Currency)
		assert.Equal(t, ValidationStatusPending, a.ValidationStatus)
		assert.False(t, a.IsValidated())
		require.Len(t, a.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeAgencyRegistered, a.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewAgency(" ", "EUR", decimal.Zero, decimal.Zero)
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
	})

	t.Run("rejects unknown currency", func(t *testing.T) {
		_, err := NewAgency("A", "QQQ", decimal.Zero, decimal.Zero)
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
	})

	t.Run("rejects rate above one", func(t *testing.T) {
		_, err := NewAgency("A", "EUR", decimal.NewFromInt(2), decimal.Zero)
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
	})
}

func TestValidationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from ValidationStatus
		to   ValidationStatus
		ok   bool
	}{
		{ValidationStatusPending, ValidationStatusValidated, true},
		{ValidationStatusPending, ValidationStatusSuspended, true},
		{ValidationStatusValidated, ValidationStatusSuspended, true},
		{ValidationStatusValidated, ValidationStatusPending, false},
		{ValidationStatusSuspended, ValidationStatusValidated, true},
		{ValidationStatusSuspended, ValidationStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAgency_Validate(t *testing.T) {
	a := newTestAgency(t, "EUR")
	a.ClearDomainEvents()

	require.NoError(t, a.Validate())
	assert.True(t, a.IsValidated())
	require.Len(t, a.GetDomainEvents(), 1)
	ev, ok := a.GetDomainEvents()[0].(shared.StatusChange)
	require.True(t, ok)
	assert.Equal(t, "PENDING", ev.FromStatus())
	assert.Equal(t, "VALIDATED", ev.ToStatus())

	// repeating is a no-op
	require.NoError(t, a.Validate())
	assert.Len(t, a.GetDomainEvents(), 1)
}

func TestAgency_ChangeCurrency(t *testing.T) {
	a := newTestAgency(t, "EUR")
	a.ClearDomainEvents()

	require.NoError(t, a.ChangeCurrency("USD"))
	assert.Equal(t, valueobject.Currency("USD"), a.Currency)
	require.Len(t, a.GetDomainEvents(), 1)
	ev := a.GetDomainEvents()[0].(*AgencyCurrencyChangedEvent)
	assert.Equal(t, valueobject.Currency("EUR"), ev.OldCurrency)

	require.NoError(t, a.ChangeCurrency("usd"))
	assert.Len(t, a.GetDomainEvents(), 1)

	assert.Error(t, a.ChangeCurrency("??"))
}

func TestResolveCurrency(t *testing.T) {
	s, err := ResolveCurrency("EUR", "")
	require.NoError(t, err)
	assert.Equal(t, CurrencySetting{Currency: "EUR"}, s)

	s, err = ResolveCurrency("EUR", "gbp")
	require.NoError(t, err)
	assert.Equal(t, CurrencySetting{Currency: "GBP", Explicit: true}, s)

	_, err = ResolveCurrency("EUR", "nope")
	assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
}

func TestCurrencySetting_Reparent(t *testing.T) {
	t.Run("inherited follows new agency", func(t *testing.T) {
		s, err := CurrencySetting{Currency: "EUR"}.Reparent("USD")
		require.NoError(t, err)
		assert.Equal(t, valueobject.Currency("USD"), s.Currency)
		assert.False(t, s.Explicit)
	})

	t.Run("explicit matching is kept", func(t *testing.T) {
		s, err := CurrencySetting{Currency: "USD", Explicit: true}.Reparent("USD")
		require.NoError(t, err)
		assert.True(t, s.Explicit)
	})

	t.Run("explicit mismatch is rejected", func(t *testing.T) {
		_, err := CurrencySetting{Currency: "GBP", Explicit: true}.Reparent("USD")
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
	})
}

func TestCurrencySetting_Propagate(t *testing.T) {
	s, changed := CurrencySetting{Currency: "EUR"}.Propagate("USD")
	assert.True(t, changed)
	assert.Equal(t, valueobject.Currency("USD"), s.Currency)

	s, changed = CurrencySetting{Currency: "GBP", Explicit: true}.Propagate("USD")
	assert.False(t, changed)
	assert.Equal(t, valueobject.Currency("GBP"), s.Currency)

	_, changed = CurrencySetting{Currency: "USD"}.Propagate("USD")
	assert.False(t, changed)
}

func TestServiceCompany_Relink(t *testing.T) {
	eur := newTestAgency(t, "EUR")
	usd := newTestAgency(t, "USD")

	t.Run("inherited currency follows", func(t *testing.T) {
		c, err := NewServiceCompany(eur, "Pipes Ltd", "")
		require.NoError(t, err)
		require.NoError(t, c.Relink(usd))
		assert.Equal(t, usd.ID, c.AgencyID)
		assert.Equal(t, valueobject.Currency("USD"), c.Currency)
		assert.Len(t, c.GetDomainEvents(), 1)
	})

	t.Run("explicit mismatch leaves company unchanged", func(t *testing.T) {
		c, err := NewServiceCompany(eur, "Pipes Ltd", "EUR")
		require.NoError(t, err)
		err = c.Relink(usd)
		assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
		assert.Equal(t, eur.ID, c.AgencyID)
		assert.Equal(t, valueobject.Currency("EUR"), c.Currency)
		assert.Empty(t, c.GetDomainEvents())
	})
}

func TestTenant_MoveTo(t *testing.T) {
	eur := newTestAgency(t, "EUR")
	usd := newTestAgency(t, "USD")
	b1, _ := NewBuilding(eur.ID, "North", "1 Main St")
	u1, _ := NewUnit(b1, "1A")
	b2, _ := NewBuilding(usd.ID, "South", "2 Main St")
	u2, _ := NewUnit(b2, "2B")

	tenant, err := NewTenant(eur, u1, "Jo", "")
	require.NoError(t, err)
	assert.True(t, tenant.Occupies(u1))
	assert.False(t, tenant.Occupies(u2))

	require.NoError(t, tenant.MoveTo(u2, usd))
	assert.Equal(t, usd.ID, tenant.AgencyID)
	assert.Equal(t, valueobject.Currency("USD"), tenant.Currency)
	assert.Equal(t, u2.ID, *tenant.UnitID)

	assert.Error(t, tenant.MoveTo(u1, usd), "unit must belong to the agency")
}

func TestNewTenant_UnitOfOtherAgency(t *testing.T) {
	eur := newTestAgency(t, "EUR")
	b, _ := NewBuilding(uuid.New(), "Elsewhere", "")
	u, _ := NewUnit(b, "X")

	_, err := NewTenant(eur, u, "Jo", "")
	assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
}

func TestTechnician_Activation(t *testing.T) {
	tech, err := NewTechnician(uuid.New(), "Sam")
	require.NoError(t, err)
	assert.True(t, tech.Active)
	tech.Deactivate()
	assert.False(t, tech.Active)
	tech.Activate()
	assert.True(t, tech.Active)

	_, err = NewTechnician(uuid.Nil, "Sam")
	assert.Error(t, err)
}

func TestNewUserAccount(t *testing.T) {
	acc, err := NewUserAccount(" Ops@Example.com ", access.RoleAgency, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", acc.Email)
	assert.True(t, acc.Active)

	_, err = NewUserAccount("not-an-email", access.RoleAgency, uuid.New())
	assert.Error(t, err)

	_, err = NewUserAccount("a@b.c", access.RoleSystem, uuid.New())
	assert.Error(t, err)
}
