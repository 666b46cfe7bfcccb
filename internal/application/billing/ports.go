package billing

import (
	"context"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// Policy holds the tunable billing rules
type Policy struct {
	MinimumPayment decimal.Decimal
	Currency       string
	ReturnURL      string
	ClaimTTL       time.Duration
	SessionTTL     time.Duration
}

// DefaultPolicy returns the rules used when configuration leaves them unset
func DefaultPolicy() Policy {
	return Policy{
		MinimumPayment: decimal.NewFromInt(10),
		Currency:       "INR",
		ClaimTTL:       30 * time.Second,
		SessionTTL:     15 * time.Minute,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MinimumPayment.IsZero() {
		p.MinimumPayment = d.MinimumPayment
	}
	if p.Currency == "" {
		p.Currency = d.Currency
	}
	if p.ClaimTTL <= 0 {
		p.ClaimTTL = d.ClaimTTL
	}
	if p.SessionTTL <= 0 {
		p.SessionTTL = d.SessionTTL
	}
	return p
}

// Metrics records billing business counters
type Metrics interface {
	BillsIssued(ctx context.Context, billType billing.BillType, count int, carried bool)
	PaymentRecorded(ctx context.Context, status billing.PaymentStatus, amount decimal.Decimal, source string)
	Reconciled(ctx context.Context, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) BillsIssued(context.Context, billing.BillType, int, bool)                        {}
func (noopMetrics) PaymentRecorded(context.Context, billing.PaymentStatus, decimal.Decimal, string) {}
func (noopMetrics) Reconciled(context.Context, string)                                              {}

// BillNotice is what a resident is told about a new bill
type BillNotice struct {
	RecipientEmail string
	RecipientName  string
	FlatNumber     string
	BillType       billing.BillType
	TotalAmount    decimal.Decimal
	DueDate        time.Time
}

// Notifier delivers bill notices to residents
type Notifier interface {
	NotifyBillIssued(ctx context.Context, notice BillNotice) error
}

// Payment sources used in metrics and logs
const (
	sourceDirect  = "direct"
	sourceGateway = "gateway"
)

// Reconciliation outcomes
const (
	OutcomeAlreadyReconciled = "already_reconciled"
	OutcomeCharged           = "charged"
	OutcomeFailed            = "failed"
	OutcomePending           = "pending"
	OutcomeProviderError     = "provider_error"
	OutcomeUnapplied         = "unapplied"
)
