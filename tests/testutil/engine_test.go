package testutil

import (
	"testing"

	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/stretchr/testify/assert"
)

func TestEngine_SeedAndOpenRequest(t *testing.T) {
	e := NewEngine(t)
	w := e.Seed(t, "EUR", "0.20", "0.10")

	assert.Equal(t, w.AgencyID, *w.Company.AgencyID)
	assert.Contains(t, e.Published.TypesFor(w.AgencyID), tenancy.EventTypeAgencyStatusChanged)

	e.Published.Reset()
	request := e.OpenRequest(t, w)

	assert.Equal(t, string(maintenance.RequestStatusDiffused), request.Status)
	assert.Equal(t, []string{
		maintenance.EventTypeWorkRequestCreated,
		maintenance.EventTypeWorkRequestDiffused,
	}, e.Published.TypesFor(request.ID))
}

func TestEventRecorder_Reset(t *testing.T) {
	r := NewEventRecorder()
	assert.Empty(t, r.EventTypes())
	assert.Empty(t, r.Handled())
	r.Reset()
	assert.Empty(t, r.Handled())
}
