package tenancy

import (
	"strings"
	"time"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ServiceCompany accepts work requests diffused by its linked agency and employs technicians
type ServiceCompany struct {
	shared.BaseAggregateRoot
	Name     string
	AgencyID uuid.UUID
	CurrencySetting
}

// NewServiceCompany creates a company linked to agency.
// An empty currency inherits the agency's.
func NewServiceCompany(agency *Agency, name, currency string) (*ServiceCompany, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationFailed("INVALID_NAME", "Company name cannot be empty")
	}
	setting, err := ResolveCurrency(agency.Currency, currency)
	if err != nil {
		return nil, err
	}
	return &ServiceCompany{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		AgencyID:          agency.ID,
		CurrencySetting:   setting,
	}, nil
}

// Relink moves the company to another agency
func (c *ServiceCompany) Relink(agency *Agency) error {
	if agency.ID == c.AgencyID {
		return nil
	}
	setting, err := c.CurrencySetting.Reparent(agency.Currency)
	if err != nil {
		return err
	}
	from := c.AgencyID
	c.AgencyID = agency.ID
	c.CurrencySetting = setting
	c.Touch(time.Now())
	c.AddDomainEvent(NewCompanyRelinkedEvent(c, from))
	return nil
}

// Technician works for exactly one service company
type Technician struct {
	shared.BaseAggregateRoot
	CompanyID uuid.UUID
	Name      string
	Active    bool
}

// NewTechnician creates an active technician
func NewTechnician(companyID uuid.UUID, name string) (*Technician, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationFailed("INVALID_NAME", "Technician name cannot be empty")
	}
	if companyID == uuid.Nil {
		return nil, shared.ValidationFailed("INVALID_COMPANY", "Company ID cannot be empty")
	}
	return &Technician{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CompanyID:         companyID,
		Name:              name,
		Active:            true,
	}, nil
}

// Deactivate prevents further assignments and logins
func (t *Technician) Deactivate() {
	if !t.Active {
		return
	}
	t.Active = false
	t.Touch(time.Now())
}

// Activate re-enables the technician
func (t *Technician) Activate() {
	if t.Active {
		return
	}
	t.Active = true
	t.Touch(time.Now())
}
