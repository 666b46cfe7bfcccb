package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBillRepository implements billing.BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByID finds a bill by its ID
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a bill and locks its row until the transaction ends
func (r *GormBillRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormBillRepository) findOne(db *gorm.DB, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOverdueOutstanding locks the user's overdue bills of one type that still carry a balance
func (r *GormBillRepository) FindOverdueOutstanding(ctx context.Context, userID uuid.UUID, billType billing.BillType, now time.Time) ([]billing.Bill, error) {
	var rows []models.BillModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND bill_type = ? AND remaining_amount > 0 AND due_date < ?", userID, billType, now).
		Order("due_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toBills(rows), nil
}

// FindByUser returns every bill of a user, latest due date first
func (r *GormBillRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]billing.Bill, error) {
	var rows []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("due_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toBills(rows), nil
}

// FindPendingByUser returns the user's bills that are not fully paid, earliest due date first
func (r *GormBillRepository) FindPendingByUser(ctx context.Context, userID uuid.UUID) ([]billing.Bill, error) {
	var rows []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, billing.BillStatusPaid).
		Order("due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toBills(rows), nil
}

// FindAll returns every bill, latest upload first
func (r *GormBillRepository) FindAll(ctx context.Context) ([]billing.Bill, error) {
	var rows []models.BillModel
	if err := r.db.WithContext(ctx).Order("uploaded_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toBills(rows), nil
}

// Summarize aggregates bills uploaded in [from, to] per bill type
func (r *GormBillRepository) Summarize(ctx context.Context, from, to time.Time) ([]billing.BillTypeSummary, error) {
	var out []billing.BillTypeSummary
	err := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Select("bill_type, COUNT(*) AS count, "+
			"COALESCE(SUM(amount_paid), 0) AS total_paid, "+
			"COALESCE(SUM(remaining_amount), 0) AS total_remaining").
		Where("uploaded_at >= ? AND uploaded_at <= ?", from, to).
		Group("bill_type").
		Order("bill_type").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Save inserts a new bill or updates an existing one with an optimistic
// version check. The bill's version must already be incremented.
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	if bill.Version <= 1 {
		return translateError(r.db.WithContext(ctx).Create(model).Error)
	}

	result := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Where("id = ? AND version = ?", bill.ID, bill.Version-1).
		Updates(map[string]any{
			"original_amount":  model.OriginalAmount,
			"total_amount":     model.TotalAmount,
			"amount_paid":      model.AmountPaid,
			"remaining_amount": model.RemainingAmount,
			"status":           model.Status,
			"due_date":         model.DueDate,
			"payment_details":  model.PaymentDetails,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SaveBatch inserts new bills in batches
func (r *GormBillRepository) SaveBatch(ctx context.Context, bills []*billing.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	rows := make([]*models.BillModel, len(bills))
	for i, b := range bills {
		rows[i] = models.BillModelFromDomain(b)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(rows, 100).Error)
}

// DeleteByIDs hard-deletes bills
func (r *GormBillRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.BillModel{}).Error
}

func toBills(rows []models.BillModel) []billing.Bill {
	bills := make([]billing.Bill, len(rows))
	for i := range rows {
		bills[i] = *rows[i].ToDomain()
	}
	return bills
}

// translateError maps driver errors onto domain errors
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

var _ billing.BillRepository = (*GormBillRepository)(nil)
