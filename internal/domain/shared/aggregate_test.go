package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAgencyAggregateRoot(t *testing.T) {
	agencyID := uuid.New()
	a := NewAgencyAggregateRoot(agencyID)

	assert.Equal(t, agencyID, a.AgencyID)
	assert.Equal(t, 1, a.Version)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	a.Saved()
	a.Saved()
	assert.Equal(t, 3, a.Version)
}

func TestBaseAggregateRoot_DomainEvents(t *testing.T) {
	a := NewBaseAggregateRoot()
	assert.Empty(t, a.GetDomainEvents())

	first := NewBaseDomainEvent("first", "Test", a.ID, uuid.New())
	second := NewBaseStatusChangeEvent("second", "Test", a.ID, uuid.New(), "OPEN", "CLOSED")
	a.AddDomainEvent(&first)
	a.AddDomainEvent(&second)

	events := a.GetDomainEvents()
	if assert.Len(t, events, 2) {
		assert.Equal(t, "first", events[0].EventType())
		assert.Equal(t, "second", events[1].EventType())
	}

	a.ClearDomainEvents()
	assert.Empty(t, a.GetDomainEvents())
}
