package persistence

import (
	"context"
	"strings"

	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserAccountRepository implements UserAccountRepository using GORM
type GormUserAccountRepository struct {
	db *gorm.DB
}

// NewGormUserAccountRepository creates a new GormUserAccountRepository
func NewGormUserAccountRepository(db *gorm.DB) *GormUserAccountRepository {
	return &GormUserAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormUserAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.UserAccount, error) {
	var model models.UserAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "User account")
	}
	return model.ToDomain(), nil
}

// FindByEmail finds an account by its email, case-insensitively
func (r *GormUserAccountRepository) FindByEmail(ctx context.Context, email string) (*tenancy.UserAccount, error) {
	var model models.UserAccountModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		return nil, notFound(err, "User account")
	}
	return model.ToDomain(), nil
}

// Create inserts a new account; a duplicate email is a conflict
func (r *GormUserAccountRepository) Create(ctx context.Context, account *tenancy.UserAccount) error {
	return translateError(r.db.WithContext(ctx).Create(models.UserAccountModelFromDomain(account)).Error)
}

// Save updates an existing account
func (r *GormUserAccountRepository) Save(ctx context.Context, account *tenancy.UserAccount) error {
	return translateError(r.db.WithContext(ctx).Save(models.UserAccountModelFromDomain(account)).Error)
}

var _ tenancy.UserAccountRepository = (*GormUserAccountRepository)(nil)
