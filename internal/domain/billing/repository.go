package billing

import (
	"context"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillRepository persists Bill aggregates
type BillRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindByIDForUpdate reads the bill under a row lock; only meaningful
	// inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindOverdueOutstanding returns bills of billType owned by userID with a
	// positive remaining amount and a due date before now, locked for update.
	FindOverdueOutstanding(ctx context.Context, userID uuid.UUID, billType BillType, now time.Time) ([]Bill, error)

	// FindByUser returns a user's bills, latest due date first
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Bill, error)

	// FindPendingByUser returns bills that are not paid, earliest due date first
	FindPendingByUser(ctx context.Context, userID uuid.UUID) ([]Bill, error)

	FindAll(ctx context.Context) ([]Bill, error)

	// Summarize groups bills uploaded in [from, to] by type
	Summarize(ctx context.Context, from, to time.Time) ([]BillTypeSummary, error)

	Save(ctx context.Context, bill *Bill) error
	SaveBatch(ctx context.Context, bills []*Bill) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

// BillTypeSummary is one row of the billing report
type BillTypeSummary struct {
	BillType       BillType        `json:"bill_type"`
	Count          int64           `json:"count"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
}

// PaymentFilter narrows payment listings. Zero times are ignored.
type PaymentFilter struct {
	From time.Time
	To   time.Time
}

// PaymentRepository persists Payment records. Payments are insert-only.
type PaymentRepository interface {
	// Create inserts a payment; a duplicate transaction id is reported as
	// shared.ErrAlreadyExists.
	Create(ctx context.Context, payment *Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error)

	// FindByUser returns a user's payments, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, filter PaymentFilter) ([]Payment, error)
	FindByUserPaged(ctx context.Context, userID uuid.UUID, page shared.PageRequest) ([]Payment, int64, error)
	FindRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Payment, error)
}
