package telemetry

import (
	"context"
	"fmt"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// BillingMetrics records billing business counters
type BillingMetrics struct {
	billsIssued    *Counter
	payments       *Counter
	paymentAmount  *Histogram
	reconciliation *Counter
}

// NewBillingMetrics registers the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	billsIssued, err := NewCounter(meter, "billing.bills.issued", "Number of bills issued", "{bill}")
	if err != nil {
		return nil, err
	}
	payments, err := NewCounter(meter, "billing.payments.recorded", "Number of payment attempts recorded", "{payment}")
	if err != nil {
		return nil, err
	}
	paymentAmount, err := NewHistogram(meter, HistogramOpts{
		Name:        "billing.payments.amount",
		Description: "Amount of successful payments",
		Unit:        "INR",
		Boundaries:  PaymentAmountBuckets,
	})
	if err != nil {
		return nil, err
	}
	reconciliation, err := NewCounter(meter, "billing.reconciliations", "Gateway status checks by outcome", "{check}")
	if err != nil {
		return nil, fmt.Errorf("failed to create billing metrics: %w", err)
	}

	return &BillingMetrics{
		billsIssued:    billsIssued,
		payments:       payments,
		paymentAmount:  paymentAmount,
		reconciliation: reconciliation,
	}, nil
}

// BillsIssued counts count new bills of billType; carried marks bills that folded in overdue balances
func (m *BillingMetrics) BillsIssued(ctx context.Context, billType billing.BillType, count int, carried bool) {
	m.billsIssued.Add(ctx, int64(count), AttrBillType.String(billType.String()), AttrCarried.Bool(carried))
}

// PaymentRecorded counts a payment attempt and, when successful, its amount
func (m *BillingMetrics) PaymentRecorded(ctx context.Context, status billing.PaymentStatus, amount decimal.Decimal, source string) {
	m.payments.Inc(ctx, AttrPaymentStatus.String(string(status)), AttrPaymentSource.String(source))
	if status == billing.PaymentStatusSuccessful {
		m.paymentAmount.Record(ctx, amount.InexactFloat64(), AttrPaymentSource.String(source))
	}
}

// Reconciled counts one status check by outcome
func (m *BillingMetrics) Reconciled(ctx context.Context, outcome string) {
	m.reconciliation.Inc(ctx, AttrOutcome.String(outcome))
}
