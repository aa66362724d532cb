// Package operation runs engine operations: one span, one transaction and one
// set of operation metrics per call, under the caller's principal.
package operation

import (
	"context"
	"errors"
	"time"

	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Func is the body of an operation. It runs inside the transaction with the
// principal attached to ctx.
type Func func(ctx context.Context, repos uow.Repositories) error

// Runner executes operations inside a unit of work
type Runner struct {
	uow             uow.UnitOfWork
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewRunner creates a Runner over unitOfWork
func NewRunner(unitOfWork uow.UnitOfWork, l *zap.Logger) *Runner {
	if l == nil {
		l = zap.NewNop()
	}
	return &Runner{uow: unitOfWork, logger: l}
}

// SetBusinessMetrics sets the business metrics recorder
func (r *Runner) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	r.businessMetrics = bm
}

// Run executes fn as p. The operation name used for spans and metrics is service.method.
// Domain errors are returned unchanged; they are counted as rejections, not logged as failures.
func (r *Runner) Run(ctx context.Context, p access.Principal, service, method string, fn Func) error {
	op := service + "." + method
	start := time.Now()

	ctx, span := telemetry.StartOperationSpan(ctx, service, method, p.ActorRole(), p.String())
	defer span.End()

	ctx = access.WithPrincipal(ctx, p)
	var subjectID, agencyID string
	if id := p.ActorID(); id != nil {
		subjectID = id.String()
	}
	if p.AgencyID != nil {
		agencyID = p.AgencyID.String()
	}
	ctx = logger.WithActor(ctx, subjectID, p.ActorRole(), agencyID)

	var err error
	telemetry.WithOperationLabels(ctx, op, p.ActorRole(), func(ctx context.Context) {
		err = r.uow.Execute(ctx, fn)
	})

	if r.businessMetrics != nil {
		r.businessMetrics.RecordOperationDuration(ctx, op, time.Since(start))
	}
	if err == nil {
		telemetry.SetOK(span)
		return nil
	}

	telemetry.RecordError(span, err)
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		if r.businessMetrics != nil {
			r.businessMetrics.RecordRejection(ctx, op, string(domainErr.Kind))
		}
		r.logger.With(logger.Fields(ctx)...).Debug("Operation rejected",
			zap.String("operation", op),
			zap.String("kind", string(domainErr.Kind)),
			zap.String("code", domainErr.Code),
		)
		return err
	}
	r.logger.With(logger.Fields(ctx)...).Error("Operation failed", zap.String("operation", op), zap.Error(err))
	return err
}
