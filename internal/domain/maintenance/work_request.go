package maintenance

import (
	"slices"
	"strings"
	"time"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
)

// RequestStatus represents the status of a work request
type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "OPEN"
	RequestStatusDiffused  RequestStatus = "DIFFUSED"
	RequestStatusLocked    RequestStatus = "LOCKED"
	RequestStatusClosed    RequestStatus = "CLOSED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

// IsValid checks if the status is a valid RequestStatus
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusOpen, RequestStatusDiffused, RequestStatusLocked, RequestStatusClosed, RequestStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// LOCKED may fall back to DIFFUSED when its order is cancelled.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	switch s {
	case RequestStatusOpen:
		return target == RequestStatusDiffused || target == RequestStatusCancelled
	case RequestStatusDiffused:
		return target == RequestStatusLocked || target == RequestStatusCancelled
	case RequestStatusLocked:
		return target == RequestStatusClosed || target == RequestStatusDiffused
	case RequestStatusClosed, RequestStatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusClosed || s == RequestStatusCancelled
}

// ParseRequestStatus validates a status value at the boundary
func ParseRequestStatus(s string) (RequestStatus, error) {
	v := RequestStatus(strings.ToUpper(s))
	if !v.IsValid() {
		return "", shared.ValidationFailed("INVALID_STATUS", "Unknown work request status: "+s)
	}
	return v, nil
}

// DiffusionMode decides which service companies see a diffused request
type DiffusionMode string

const (
	// DiffusionBroadcast exposes the request to every company linked to the agency
	DiffusionBroadcast DiffusionMode = "BROADCAST"
	// DiffusionRestricted exposes the request to a pre-assigned set of companies only
	DiffusionRestricted DiffusionMode = "RESTRICTED"
)

// IsValid checks if the mode is a valid DiffusionMode
func (m DiffusionMode) IsValid() bool {
	return m == DiffusionBroadcast || m == DiffusionRestricted
}

// ParseDiffusionMode validates a diffusion mode at the boundary; empty means broadcast
func ParseDiffusionMode(s string) (DiffusionMode, error) {
	if s == "" {
		return DiffusionBroadcast, nil
	}
	m := DiffusionMode(strings.ToUpper(s))
	if !m.IsValid() {
		return "", shared.ValidationFailed("INVALID_DIFFUSION_MODE", "Unknown diffusion mode: "+s)
	}
	return m, nil
}

// WorkRequest is a maintenance issue reported by a tenant against a unit
type WorkRequest struct {
	shared.AgencyAggregateRoot
	UnitID           uuid.UUID
	TenantID         uuid.UUID
	Category         string
	Description      string
	DiffusionMode    DiffusionMode
	TargetCompanyIDs []uuid.UUID
	tenancy.CurrencySetting
	Status       RequestStatus
	DiffusedAt   *time.Time
	LockedAt     *time.Time
	ClosedAt     *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// NewWorkRequest opens a request on unit for tenant.
// The agency is derived from the unit; an empty currency inherits the agency's.
func NewWorkRequest(tenant *tenancy.Tenant, unit *tenancy.Unit, agency *tenancy.Agency, category, description string, mode DiffusionMode, currency string) (*WorkRequest, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return nil, shared.ValidationFailed("INVALID_CATEGORY", "Category cannot be empty")
	}
	if len(category) > 50 {
		return nil, shared.ValidationFailed("INVALID_CATEGORY", "Category cannot exceed 50 characters")
	}
	if unit.AgencyID != agency.ID {
		return nil, shared.ValidationFailed("UNIT_AGENCY_MISMATCH", "Unit does not belong to the agency")
	}
	if !tenant.Occupies(unit) {
		return nil, shared.Forbidden("UNIT_NOT_OCCUPIED", "Tenant does not occupy this unit")
	}
	if mode == "" {
		mode = DiffusionBroadcast
	}
	if !mode.IsValid() {
		return nil, shared.ValidationFailed("INVALID_DIFFUSION_MODE", "Unknown diffusion mode: "+string(mode))
	}
	setting, err := tenancy.ResolveCurrency(agency.Currency, currency)
	if err != nil {
		return nil, err
	}

	r := &WorkRequest{
		AgencyAggregateRoot: shared.NewAgencyAggregateRoot(agency.ID),
		UnitID:              unit.ID,
		TenantID:            tenant.ID,
		Category:            category,
		Description:         strings.TrimSpace(description),
		DiffusionMode:       mode,
		CurrencySetting:     setting,
		Status:              RequestStatusOpen,
	}
	r.AddDomainEvent(NewWorkRequestCreatedEvent(r))
	return r, nil
}

// Diffuse makes the request visible to service companies.
// An empty mode keeps the mode chosen at creation. Restricted diffusion needs
// a non-empty target set; linkage of the targets is checked by the caller.
func (r *WorkRequest) Diffuse(mode DiffusionMode, targets []uuid.UUID) error {
	if mode == "" {
		mode = r.DiffusionMode
	}
	if !mode.IsValid() {
		return shared.ValidationFailed("INVALID_DIFFUSION_MODE", "Unknown diffusion mode: "+string(mode))
	}
	if err := r.checkTransition(RequestStatusDiffused); err != nil {
		return err
	}

	switch mode {
	case DiffusionRestricted:
		targets = dedupe(targets)
		if len(targets) == 0 {
			return shared.ValidationFailed("EMPTY_TARGETS", "Restricted diffusion requires at least one company")
		}
		r.TargetCompanyIDs = targets
	case DiffusionBroadcast:
		r.TargetCompanyIDs = nil
	}

	now := time.Now()
	r.DiffusionMode = mode
	r.DiffusedAt = &now
	from := r.setStatus(RequestStatusDiffused, now)
	r.AddDomainEvent(NewWorkRequestDiffusedEvent(r, from))
	return nil
}

// IsTargeted reports whether companyID is in the restricted target set
func (r *WorkRequest) IsTargeted(companyID uuid.UUID) bool {
	return slices.Contains(r.TargetCompanyIDs, companyID)
}

// OfferedTo reports whether the request was diffused to companyID, by
// broadcast within linkedAgencyID or as a restricted target. It stays true
// after the request is locked or closed.
func (r *WorkRequest) OfferedTo(companyID uuid.UUID, linkedAgencyID *uuid.UUID) bool {
	if r.DiffusedAt == nil {
		return false
	}
	if r.DiffusionMode == DiffusionRestricted {
		return r.IsTargeted(companyID)
	}
	return linkedAgencyID != nil && *linkedAgencyID == r.AgencyID
}

// Lock marks the request as taken by a work order.
// A request that is already locked is a conflict, not a precondition failure.
func (r *WorkRequest) Lock(orderID uuid.UUID) error {
	if r.Status == RequestStatusLocked {
		return shared.Conflict("REQUEST_LOCKED", "Work request has already been accepted")
	}
	if err := r.checkTransition(RequestStatusLocked); err != nil {
		return err
	}
	now := time.Now()
	r.LockedAt = &now
	from := r.setStatus(RequestStatusLocked, now)
	r.AddDomainEvent(NewWorkRequestLockedEvent(r, from, orderID))
	return nil
}

// Release unlocks the request after its order was cancelled. No-op unless locked.
func (r *WorkRequest) Release(orderID uuid.UUID) error {
	if r.Status != RequestStatusLocked {
		return nil
	}
	now := time.Now()
	r.LockedAt = nil
	from := r.setStatus(RequestStatusDiffused, now)
	r.AddDomainEvent(NewWorkRequestReleasedEvent(r, from, orderID))
	return nil
}

// Close ends the request once its invoice is paid. Closing a closed request is a no-op.
func (r *WorkRequest) Close() error {
	if r.Status == RequestStatusClosed {
		return nil
	}
	if err := r.checkTransition(RequestStatusClosed); err != nil {
		return err
	}
	now := time.Now()
	r.ClosedAt = &now
	from := r.setStatus(RequestStatusClosed, now)
	r.AddDomainEvent(NewWorkRequestClosedEvent(r, from))
	return nil
}

// Cancel withdraws a request that has not been accepted yet
func (r *WorkRequest) Cancel(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.ValidationFailed("REASON_REQUIRED", "Cancel reason is required")
	}
	if err := r.checkTransition(RequestStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	r.CancelledAt = &now
	r.CancelReason = reason
	from := r.setStatus(RequestStatusCancelled, now)
	r.AddDomainEvent(NewWorkRequestCancelledEvent(r, from))
	return nil
}

func (r *WorkRequest) checkTransition(target RequestStatus) error {
	if !r.Status.CanTransitionTo(target) {
		return shared.PreconditionFailed("INVALID_STATE",
			"Cannot move work request from "+string(r.Status)+" to "+string(target))
	}
	return nil
}

// setStatus moves to s and returns the previous status
func (r *WorkRequest) setStatus(s RequestStatus, at time.Time) RequestStatus {
	from := r.Status
	r.Status = s
	r.Touch(at)
	return from
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
