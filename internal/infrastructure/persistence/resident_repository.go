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

// GormResidentRepository implements identity.ResidentRepository using GORM
type GormResidentRepository struct {
	db *gorm.DB
}

// NewGormResidentRepository creates a new GormResidentRepository
func NewGormResidentRepository(db *gorm.DB) *GormResidentRepository {
	return &GormResidentRepository{db: db}
}

// Create inserts a resident
func (r *GormResidentRepository) Create(ctx context.Context, resident *identity.Resident) error {
	return translateError(r.db.WithContext(ctx).Create(models.ResidentModelFromDomain(resident)).Error)
}

// CreateBatch inserts residents in one statement per batch
func (r *GormResidentRepository) CreateBatch(ctx context.Context, residents []*identity.Resident) error {
	if len(residents) == 0 {
		return nil
	}
	rows := make([]*models.ResidentModel, len(residents))
	for i, res := range residents {
		rows[i] = models.ResidentModelFromDomain(res)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(rows, 200).Error)
}

// FindByID finds a resident by ID
func (r *GormResidentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Resident, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByFlatNumber finds a resident by flat number
func (r *GormResidentRepository) FindByFlatNumber(ctx context.Context, flatNumber string) (*identity.Resident, error) {
	return r.findOne(ctx, "flat_number = ?", flatNumber)
}

func (r *GormResidentRepository) findOne(ctx context.Context, query string, arg any) (*identity.Resident, error) {
	var model models.ResidentModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFlatNumbers returns the residents that exist, keyed by flat number
func (r *GormResidentRepository) FindByFlatNumbers(ctx context.Context, flatNumbers []string) (map[string]*identity.Resident, error) {
	out := make(map[string]*identity.Resident, len(flatNumbers))
	if len(flatNumbers) == 0 {
		return out, nil
	}
	var rows []models.ResidentModel
	if err := r.db.WithContext(ctx).Where("flat_number IN ?", flatNumbers).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].FlatNumber] = rows[i].ToDomain()
	}
	return out, nil
}

// FindAll lists residents ordered by flat number
func (r *GormResidentRepository) FindAll(ctx context.Context, filter identity.ResidentFilter) ([]*identity.Resident, error) {
	query := r.db.WithContext(ctx)
	if filter.Complex != "" {
		query = query.Where("complex = ?", filter.Complex)
	}
	var rows []models.ResidentModel
	if err := query.Order("flat_number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	residents := make([]*identity.Resident, len(rows))
	for i := range rows {
		residents[i] = rows[i].ToDomain()
	}
	return residents, nil
}

// ExistingKeys reports which of the given flat numbers and emails are already registered
func (r *GormResidentRepository) ExistingKeys(ctx context.Context, flatNumbers, emails []string) (map[string]bool, map[string]bool, error) {
	flats := make(map[string]bool)
	mails := make(map[string]bool)
	if len(flatNumbers) == 0 && len(emails) == 0 {
		return flats, mails, nil
	}

	var rows []models.ResidentModel
	query := r.db.WithContext(ctx).Select("flat_number", "email")
	switch {
	case len(flatNumbers) > 0 && len(emails) > 0:
		query = query.Where("flat_number IN ? OR email IN ?", flatNumbers, emails)
	case len(flatNumbers) > 0:
		query = query.Where("flat_number IN ?", flatNumbers)
	default:
		query = query.Where("email IN ?", emails)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	wantFlat := toSet(flatNumbers)
	wantMail := toSet(emails)
	for _, row := range rows {
		if wantFlat[row.FlatNumber] {
			flats[row.FlatNumber] = true
		}
		if wantMail[row.Email] {
			mails[row.Email] = true
		}
	}
	return flats, mails, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

var _ identity.ResidentRepository = (*GormResidentRepository)(nil)
