package tenancy

import (
	"net/mail"
	"strings"
	"time"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserAccount is the authenticated principal's own record.
// SubjectID points at the agency, company, technician or tenant it acts as.
type UserAccount struct {
	shared.BaseEntity
	Email     string
	Role      access.Role
	SubjectID uuid.UUID
	Active    bool
}

// NewUserAccount creates an active account
func NewUserAccount(email string, role access.Role, subjectID uuid.UUID) (*UserAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.ValidationFailed("INVALID_EMAIL", "Invalid email address")
	}
	if !role.IsValid() {
		return nil, shared.ValidationFailed("INVALID_ROLE", "Unknown role: "+string(role))
	}
	if subjectID == uuid.Nil {
		return nil, shared.ValidationFailed("INVALID_SUBJECT", "Subject ID cannot be empty")
	}
	return &UserAccount{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		Role:       role,
		SubjectID:  subjectID,
		Active:     true,
	}, nil
}

// Deactivate blocks the account from resolving to a principal
func (u *UserAccount) Deactivate() {
	u.Active = false
	u.Touch(time.Now())
}
