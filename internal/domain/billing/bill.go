package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeBill is the aggregate type name used in events
const AggregateTypeBill = "Bill"

// MoneyScale is the number of decimal places amounts are stored with
const MoneyScale = 2

// checkScale rejects amounts the DECIMAL(12,2) columns would round
func checkScale(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return NewValidationError("%s %s has more than %d decimal places", field, amount.String(), MoneyScale)
	}
	return nil
}

// PaymentDetail is one entry of the bill's append-only payment audit trail
type PaymentDetail struct {
	PaymentID   uuid.UUID       `json:"payment_id"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaymentDate time.Time       `json:"payment_date"`
	Status      PaymentStatus   `json:"status"`
}

// PaymentDetails is a slice of PaymentDetail stored as JSONB
type PaymentDetails []PaymentDetail

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentDetails) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentDetails) Scan(value any) error {
	if value == nil {
		*p = PaymentDetails{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan PaymentDetails: unsupported type")
	}

	if len(raw) == 0 {
		*p = PaymentDetails{}
		return nil
	}
	return json.Unmarshal(raw, p)
}

// SuccessfulTotal sums the amounts of successful entries
func (p PaymentDetails) SuccessfulTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range p {
		if d.Status == PaymentStatusSuccessful || d.Status == "" {
			total = total.Add(d.AmountPaid)
		}
	}
	return total
}

// Bill is the aggregate root of the ledger.
// RemainingAmount always equals TotalAmount - AmountPaid and is never negative.
type Bill struct {
	shared.BaseAggregateRoot
	UserID          uuid.UUID
	FlatNumber      string
	BillType        BillType
	OriginalAmount  decimal.Decimal
	TotalAmount     decimal.Decimal
	AmountPaid      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          BillStatus
	DueDate         time.Time
	UploadedAt      time.Time
	PaymentDetails  PaymentDetails
}

// NewBill creates an unpaid bill whose total folds in the carried-forward
// outstanding balance.
func NewBill(userID uuid.UUID, flatNumber string, billType BillType, originalAmount, outstanding decimal.Decimal, dueDate time.Time) (*Bill, error) {
	if userID == uuid.Nil {
		return nil, NewValidationError("user is required")
	}
	flatNumber = strings.TrimSpace(flatNumber)
	if flatNumber == "" {
		return nil, NewValidationError("flat number is required")
	}
	if !billType.IsValid() {
		return nil, NewValidationError("invalid bill type %q", billType)
	}
	if !originalAmount.IsPositive() {
		return nil, NewValidationError("original amount must be positive")
	}
	if err := checkScale("original amount", originalAmount); err != nil {
		return nil, err
	}
	if outstanding.IsNegative() {
		return nil, NewValidationError("outstanding amount cannot be negative")
	}
	if dueDate.IsZero() {
		return nil, NewValidationError("due date is required")
	}

	total := originalAmount.Add(outstanding)
	bill := &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		FlatNumber:        flatNumber,
		BillType:          billType,
		OriginalAmount:    originalAmount,
		TotalAmount:       total,
		AmountPaid:        decimal.Zero,
		RemainingAmount:   total,
		Status:            BillStatusUnpaid,
		DueDate:           dueDate,
		UploadedAt:        time.Now(),
		PaymentDetails:    PaymentDetails{},
	}
	return bill, nil
}

// IsOverdue reports whether the bill still owes money and its due date has passed
func (b *Bill) IsOverdue(now time.Time) bool {
	return b.RemainingAmount.IsPositive() && b.DueDate.Before(now)
}

// CarryOver returns the balance that would be folded into a new bill of the
// same type, or zero when the bill is not overdue.
func (b *Bill) CarryOver(now time.Time) decimal.Decimal {
	if !b.IsOverdue(now) {
		return decimal.Zero
	}
	return b.RemainingAmount
}

// ValidatePayment checks the payment preconditions without mutating the bill
func (b *Bill) ValidatePayment(amount, minimum decimal.Decimal) error {
	if err := checkScale("payment amount", amount); err != nil {
		return err
	}
	if amount.LessThan(minimum) {
		return NewValidationError("payment amount %s is below the minimum payment of %s", amount.String(), minimum.String())
	}
	if amount.GreaterThan(b.RemainingAmount) {
		return NewValidationError("payment amount %s exceeds the remaining amount %s", amount.String(), b.RemainingAmount.String())
	}
	return nil
}

// ApplyPayment records a successful payment of amount against the bill.
// On a validation failure the bill is left untouched.
func (b *Bill) ApplyPayment(amount decimal.Decimal, meta PaymentMeta, minimum decimal.Decimal) (*Payment, error) {
	if err := b.ValidatePayment(amount, minimum); err != nil {
		return nil, err
	}

	payment := newPayment(b, amount, meta, PaymentStatusSuccessful)
	b.AmountPaid = b.AmountPaid.Add(amount)
	b.recompute()
	b.PaymentDetails = append(b.PaymentDetails, PaymentDetail{
		PaymentID:   payment.ID,
		AmountPaid:  amount,
		PaymentDate: payment.PaymentDate,
		Status:      PaymentStatusSuccessful,
	})
	b.IncrementVersion()

	b.AddDomainEvent(NewPaymentAppliedEvent(b, payment))
	return payment, nil
}

// RecordFailedAttempt stores a failed attempt in the audit trail. Balances do
// not change.
func (b *Bill) RecordFailedAttempt(amount decimal.Decimal, meta PaymentMeta, reason string) *Payment {
	payment := newPayment(b, amount, meta, PaymentStatusFailed)
	b.PaymentDetails = append(b.PaymentDetails, PaymentDetail{
		PaymentID:   payment.ID,
		AmountPaid:  amount,
		PaymentDate: payment.PaymentDate,
		Status:      PaymentStatusFailed,
	})
	b.IncrementVersion()

	b.AddDomainEvent(NewPaymentFailedEvent(b, payment, reason))
	return payment
}

// BillUpdate holds the admin-editable fields of a bill. Nil means unchanged.
type BillUpdate struct {
	DueDate        *time.Time
	OriginalAmount *decimal.Decimal
}

// Update applies an admin correction. A new original amount shifts the total
// by the same delta; the result may not fall below what was already paid.
func (b *Bill) Update(u BillUpdate) error {
	if u.DueDate == nil && u.OriginalAmount == nil {
		return NewValidationError("nothing to update")
	}
	if u.DueDate != nil && u.DueDate.IsZero() {
		return NewValidationError("due date is required")
	}

	original := b.OriginalAmount
	total := b.TotalAmount
	if u.OriginalAmount != nil {
		if !u.OriginalAmount.IsPositive() {
			return NewValidationError("original amount must be positive")
		}
		if err := checkScale("original amount", *u.OriginalAmount); err != nil {
			return err
		}
		delta := u.OriginalAmount.Sub(b.OriginalAmount)
		original = *u.OriginalAmount
		total = b.TotalAmount.Add(delta)
		if total.LessThan(b.AmountPaid) {
			return NewValidationError("total amount %s would fall below the amount already paid %s", total.String(), b.AmountPaid.String())
		}
	}

	b.OriginalAmount = original
	b.TotalAmount = total
	if u.DueDate != nil {
		b.DueDate = *u.DueDate
	}
	b.recompute()
	b.IncrementVersion()
	return nil
}

func (b *Bill) recompute() {
	b.RemainingAmount = b.TotalAmount.Sub(b.AmountPaid)
	b.Status = DeriveStatus(b.TotalAmount, b.AmountPaid)
}
