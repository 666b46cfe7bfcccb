package persistence

import (
	"context"
	"errors"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment. The unique transaction id turns a replayed
// callback into shared.ErrAlreadyExists.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error)
}

// FindByTransactionID finds a payment by the gateway transaction id
func (r *GormPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser returns a user's payments inside the optional date window, newest first
func (r *GormPaymentRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !filter.From.IsZero() {
		query = query.Where("payment_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("payment_date <= ?", filter.To)
	}

	var rows []models.PaymentModel
	if err := query.Order("payment_date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPayments(rows), nil
}

// FindByUserPaged returns one page of a user's payments and the total count
func (r *GormPaymentRepository) FindByUserPaged(ctx context.Context, userID uuid.UUID, page shared.PageRequest) ([]billing.Payment, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	if err := query.Order("payment_date DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toPayments(rows), total, nil
}

// FindRecentByUser returns at most limit of the user's latest payments
func (r *GormPaymentRepository) FindRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("payment_date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPayments(rows), nil
}

func toPayments(rows []models.PaymentModel) []billing.Payment {
	payments := make([]billing.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
