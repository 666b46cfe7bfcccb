package persistence

import (
	"context"
	"errors"

	"github.com/Nitish8696/flatgurugram/internal/domain/identity"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAdminRepository implements identity.AdminRepository using GORM
type GormAdminRepository struct {
	db *gorm.DB
}

// NewGormAdminRepository creates a new GormAdminRepository
func NewGormAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// Create inserts an admin
func (r *GormAdminRepository) Create(ctx context.Context, admin *identity.Admin) error {
	return translateError(r.db.WithContext(ctx).Create(models.AdminModelFromDomain(admin)).Error)
}

// FindByID finds an admin by ID
func (r *GormAdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Admin, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail finds an admin by email
func (r *GormAdminRepository) FindByEmail(ctx context.Context, email string) (*identity.Admin, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GormAdminRepository) findOne(ctx context.Context, query string, arg any) (*identity.Admin, error) {
	var model models.AdminModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByEmail checks if an admin with the email exists
func (r *GormAdminRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AdminModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the number of admins
func (r *GormAdminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AdminModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ identity.AdminRepository = (*GormAdminRepository)(nil)
