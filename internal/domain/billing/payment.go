package billing

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one payment attempt against a bill. It is immutable once created;
// a failed retry gets its own record.
type Payment struct {
	shared.BaseEntity
	UserID        uuid.UUID
	BillID        uuid.UUID
	FlatNumber    string
	AmountPaid    decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod string
	TransactionID string
	Status        PaymentStatus
}

// PaymentMeta carries the caller-supplied attributes of a payment attempt
type PaymentMeta struct {
	TransactionID string
	PaymentMethod string
	PaidAt        time.Time
}

func newPayment(bill *Bill, amount decimal.Decimal, meta PaymentMeta, status PaymentStatus) *Payment {
	return buildPayment(bill.UserID, bill.ID, bill.FlatNumber, amount, meta, status)
}

// NewOrphanedPayment records a failed attempt for a bill that no longer
// exists, e.g. one folded into a newer bill while its session was open.
func NewOrphanedPayment(userID, billID uuid.UUID, flatNumber string, amount decimal.Decimal, meta PaymentMeta) *Payment {
	return buildPayment(userID, billID, flatNumber, amount, meta, PaymentStatusFailed)
}

func buildPayment(userID, billID uuid.UUID, flatNumber string, amount decimal.Decimal, meta PaymentMeta, status PaymentStatus) *Payment {
	method := strings.TrimSpace(meta.PaymentMethod)
	if method == "" {
		method = DefaultPaymentMethod
	}
	paidAt := meta.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		UserID:        userID,
		BillID:        billID,
		FlatNumber:    flatNumber,
		AmountPaid:    amount,
		PaymentDate:   paidAt,
		PaymentMethod: method,
		TransactionID: meta.TransactionID,
		Status:        status,
	}
}

// IsSuccessful returns true if the attempt moved money
func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusSuccessful
}

// NewTransactionID returns "TR" followed by the unix millisecond clock and a
// random hex suffix, e.g. TR1718000000000a1b2c3.
func NewTransactionID(now time.Time) string {
	var suffix [3]byte
	_, _ = rand.Read(suffix[:])
	return "TR" + strconv.FormatInt(now.UnixMilli(), 10) + hex.EncodeToString(suffix[:])
}

// IsTransactionID reports whether s looks like an id from NewTransactionID
func IsTransactionID(s string) bool {
	if len(s) < 3 || !strings.HasPrefix(s, "TR") {
		return false
	}
	for _, r := range s[2:] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
