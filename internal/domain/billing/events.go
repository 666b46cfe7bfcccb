package billing

import (
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeBillIssued     = "BillIssued"
	EventTypeBillsFolded    = "BillsFolded"
	EventTypePaymentApplied = "PaymentApplied"
	EventTypePaymentFailed  = "PaymentFailed"
)

// BillIssuedEvent is raised after a new bill is committed. It carries what
// the resident notification needs.
type BillIssuedEvent struct {
	shared.BaseDomainEvent
	BillID         uuid.UUID       `json:"bill_id"`
	UserID         uuid.UUID       `json:"user_id"`
	FlatNumber     string          `json:"flat_number"`
	RecipientEmail string          `json:"recipient_email"`
	RecipientName  string          `json:"recipient_name"`
	BillType       BillType        `json:"bill_type"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DueDate        time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *BillIssuedEvent) EventType() string {
	return EventTypeBillIssued
}

// NewBillIssuedEvent creates a new BillIssuedEvent
func NewBillIssuedEvent(b *Bill, recipientEmail, recipientName string) *BillIssuedEvent {
	return &BillIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillIssued, AggregateTypeBill, b.ID),
		BillID:          b.ID,
		UserID:          b.UserID,
		FlatNumber:      b.FlatNumber,
		RecipientEmail:  recipientEmail,
		RecipientName:   recipientName,
		BillType:        b.BillType,
		TotalAmount:     b.TotalAmount,
		DueDate:         b.DueDate,
	}
}

// FoldedBill records one superseded bill and the balance taken from it
type FoldedBill struct {
	BillID          uuid.UUID       `json:"bill_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	DueDate         time.Time       `json:"due_date"`
}

// BillsFoldedEvent is raised when overdue bills are deleted and their balance
// carried into a new bill. It is the only remaining trace of the deleted rows.
type BillsFoldedEvent struct {
	shared.BaseDomainEvent
	NewBillID   uuid.UUID       `json:"new_bill_id"`
	UserID      uuid.UUID       `json:"user_id"`
	BillType    BillType        `json:"bill_type"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Folded      []FoldedBill    `json:"folded"`
}

// EventType returns the event type name
func (e *BillsFoldedEvent) EventType() string {
	return EventTypeBillsFolded
}

// NewBillsFoldedEvent creates a new BillsFoldedEvent
func NewBillsFoldedEvent(newBill *Bill, folded []Bill) *BillsFoldedEvent {
	items := make([]FoldedBill, 0, len(folded))
	outstanding := decimal.Zero
	for _, f := range folded {
		items = append(items, FoldedBill{
			BillID:          f.ID,
			TotalAmount:     f.TotalAmount,
			AmountPaid:      f.AmountPaid,
			RemainingAmount: f.RemainingAmount,
			DueDate:         f.DueDate,
		})
		outstanding = outstanding.Add(f.RemainingAmount)
	}
	return &BillsFoldedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillsFolded, AggregateTypeBill, newBill.ID),
		NewBillID:       newBill.ID,
		UserID:          newBill.UserID,
		BillType:        newBill.BillType,
		Outstanding:     outstanding,
		Folded:          items,
	}
}

// PaymentAppliedEvent is raised when a successful payment changes a bill
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	BillID          uuid.UUID       `json:"bill_id"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	UserID          uuid.UUID       `json:"user_id"`
	TransactionID   string          `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          BillStatus      `json:"status"`
}

// EventType returns the event type name
func (e *PaymentAppliedEvent) EventType() string {
	return EventTypePaymentApplied
}

// NewPaymentAppliedEvent creates a new PaymentAppliedEvent
func NewPaymentAppliedEvent(b *Bill, p *Payment) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentApplied, AggregateTypeBill, b.ID),
		BillID:          b.ID,
		PaymentID:       p.ID,
		UserID:          b.UserID,
		TransactionID:   p.TransactionID,
		Amount:          p.AmountPaid,
		RemainingAmount: b.RemainingAmount,
		Status:          b.Status,
	}
}

// PaymentFailedEvent is raised when a gateway attempt ends without a charge
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	BillID        uuid.UUID       `json:"bill_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	UserID        uuid.UUID       `json:"user_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// EventType returns the event type name
func (e *PaymentFailedEvent) EventType() string {
	return EventTypePaymentFailed
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(b *Bill, p *Payment, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypeBill, b.ID),
		BillID:          b.ID,
		PaymentID:       p.ID,
		UserID:          b.UserID,
		TransactionID:   p.TransactionID,
		Amount:          p.AmountPaid,
		Reason:          reason,
	}
}
