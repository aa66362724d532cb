package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAggregate struct {
	shared.BaseAggregateRoot
}

func newTestAggregate(eventTypes ...string) *testAggregate {
	a := &testAggregate{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	for _, et := range eventTypes {
		e := shared.NewBaseDomainEvent(et, "Test", a.ID, uuid.Nil)
		a.AddDomainEvent(&e)
	}
	return a
}

// chainDispatcher raises one follow-up event per handled event until depth is reached
type chainDispatcher struct {
	collector *EventCollector
	depth     int
	handled   []string
	err       error
}

func (d *chainDispatcher) Dispatch(ctx context.Context, _ Repositories, env Envelope) error {
	d.handled = append(d.handled, env.Event.EventType())
	if d.err != nil {
		return d.err
	}
	if len(d.handled) < d.depth {
		d.collector.Collect(ctx, newTestAggregate("Next"))
	}
	return nil
}

func TestEventCollector_Collect(t *testing.T) {
	c := NewEventCollector()
	agencyID := uuid.New()
	p := access.NewAgencyPrincipal(uuid.New(), agencyID)
	ctx := access.WithPrincipal(context.Background(), p)

	agg := newTestAggregate("A", "B")
	c.Collect(ctx, agg)

	assert.Empty(t, agg.GetDomainEvents(), "aggregate events are cleared")
	envs := c.Drain()
	require.Len(t, envs, 2)
	assert.Equal(t, "A", envs[0].Event.EventType())
	assert.Equal(t, p, envs[0].Actor)
	assert.Equal(t, 0, c.Len())
}

func TestEventCollector_DefaultsToSystemActor(t *testing.T) {
	c := NewEventCollector()
	c.Collect(context.Background(), newTestAggregate("A"))
	envs := c.Drain()
	require.Len(t, envs, 1)
	assert.True(t, envs[0].Actor.IsSystem())
}

func TestSettle(t *testing.T) {
	t.Run("follows cascaded events to completion", func(t *testing.T) {
		c := NewEventCollector()
		d := &chainDispatcher{collector: c, depth: 3}
		c.Collect(context.Background(), newTestAggregate("Start"))

		settled, err := Settle(context.Background(), nil, c, d, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Start", "Next", "Next"}, d.handled)
		assert.Len(t, settled, 3)
	})

	t.Run("bounded rounds", func(t *testing.T) {
		c := NewEventCollector()
		d := &chainDispatcher{collector: c, depth: 100}
		c.Collect(context.Background(), newTestAggregate("Start"))

		_, err := Settle(context.Background(), nil, c, d, 4)
		assert.Error(t, err)
		assert.Len(t, d.handled, 4)
	})

	t.Run("dispatcher error aborts", func(t *testing.T) {
		c := NewEventCollector()
		boom := errors.New("boom")
		d := &chainDispatcher{collector: c, err: boom}
		c.Collect(context.Background(), newTestAggregate("Start"))

		_, err := Settle(context.Background(), nil, c, d, 0)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil dispatcher only collects", func(t *testing.T) {
		c := NewEventCollector()
		c.Collect(context.Background(), newTestAggregate("A", "B"))
		settled, err := Settle(context.Background(), nil, c, nil, 0)
		require.NoError(t, err)
		assert.Len(t, settled, 2)
	})
}
