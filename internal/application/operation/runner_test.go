package operation

import (
	"context"
	"errors"
	"testing"

	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type passthroughUnitOfWork struct {
	calls int
}

func (u *passthroughUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	u.calls++
	return fn(ctx, nil)
}

func TestRunner_Run(t *testing.T) {
	agencyID := uuid.New()
	p := access.NewAgencyPrincipal(uuid.New(), agencyID)

	t.Run("attaches the principal and actor to the context", func(t *testing.T) {
		u := &passthroughUnitOfWork{}
		r := NewRunner(u, nil)

		err := r.Run(context.Background(), p, "work_order", "validate", func(ctx context.Context, _ uow.Repositories) error {
			got, ok := access.PrincipalFrom(ctx)
			require.True(t, ok)
			assert.Equal(t, p, got)
			assert.Equal(t, "AGENCY", logger.GetActorRole(ctx))
			assert.Equal(t, agencyID.String(), logger.GetAgencyID(ctx))
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, u.calls)
	})

	t.Run("domain errors pass through without error logs", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		r := NewRunner(&passthroughUnitOfWork{}, zap.New(core))
		rejected := shared.Conflict("REQUEST_LOCKED", "Work request has already been accepted")

		err := r.Run(context.Background(), p, "work_order", "accept", func(context.Context, uow.Repositories) error {
			return rejected
		})

		assert.Same(t, rejected, err)
		assert.Zero(t, logs.Len())
	})

	t.Run("infrastructure errors are returned", func(t *testing.T) {
		r := NewRunner(&passthroughUnitOfWork{}, zap.NewNop())
		boom := errors.New("connection reset")

		err := r.Run(context.Background(), p, "invoice", "send", func(context.Context, uow.Repositories) error {
			return boom
		})

		assert.ErrorIs(t, err, boom)
	})
}
