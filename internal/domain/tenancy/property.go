package tenancy

import (
	"strings"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Building belongs to an agency
type Building struct {
	shared.BaseEntity
	AgencyID uuid.UUID
	Name     string
	Address  string
}

// NewBuilding creates a building of agencyID
func NewBuilding(agencyID uuid.UUID, name, address string) (*Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationFailed("INVALID_NAME", "Building name cannot be empty")
	}
	return &Building{
		BaseEntity: shared.NewBaseEntity(),
		AgencyID:   agencyID,
		Name:       name,
		Address:    strings.TrimSpace(address),
	}, nil
}

// Unit is a rentable unit in a building; the agency is denormalized from the building
type Unit struct {
	shared.BaseEntity
	BuildingID uuid.UUID
	AgencyID   uuid.UUID
	Label      string
}

// NewUnit creates a unit in building
func NewUnit(building *Building, label string) (*Unit, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, shared.ValidationFailed("INVALID_LABEL", "Unit label cannot be empty")
	}
	return &Unit{
		BaseEntity: shared.NewBaseEntity(),
		BuildingID: building.ID,
		AgencyID:   building.AgencyID,
		Label:      label,
	}, nil
}
