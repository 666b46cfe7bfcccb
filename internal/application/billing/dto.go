package billing

import (
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssueBillInput names the owner either by UserID or by FlatNumber
type IssueBillInput struct {
	UserID         uuid.UUID
	FlatNumber     string
	BillType       string
	OriginalAmount decimal.Decimal
	DueDate        time.Time
}

// BulkBillRow is one already-parsed import row
type BulkBillRow struct {
	FlatNumber     string          `json:"flat_number" binding:"required"`
	BillType       string          `json:"bill_type" binding:"required"`
	OriginalAmount decimal.Decimal `json:"original_amount" binding:"required"`
	DueDate        time.Time       `json:"due_date" binding:"required"`
}

// UpdateBillInput carries an admin correction. Nil means unchanged.
type UpdateBillInput struct {
	DueDate        *time.Time
	OriginalAmount *decimal.Decimal
}

// PayBillInput is a direct payment request
type PayBillInput struct {
	BillID        uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod string
}

// PaymentDetailResponse is one audit entry of a bill
type PaymentDetailResponse struct {
	PaymentID   uuid.UUID       `json:"payment_id"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaymentDate time.Time       `json:"payment_date"`
	Status      string          `json:"status"`
}

// BillResponse is the API view of a bill
type BillResponse struct {
	ID              uuid.UUID               `json:"id"`
	UserID          uuid.UUID               `json:"user_id"`
	FlatNumber      string                  `json:"flat_number"`
	BillType        string                  `json:"bill_type"`
	OriginalAmount  decimal.Decimal         `json:"original_amount"`
	TotalAmount     decimal.Decimal         `json:"total_amount"`
	AmountPaid      decimal.Decimal         `json:"amount_paid"`
	RemainingAmount decimal.Decimal         `json:"remaining_amount"`
	Status          string                  `json:"status"`
	DueDate         time.Time               `json:"due_date"`
	UploadedAt      time.Time               `json:"uploaded_at"`
	PaymentDetails  []PaymentDetailResponse `json:"payment_details"`
}

// ToBillResponse converts a domain bill
func ToBillResponse(b *billing.Bill) BillResponse {
	details := make([]PaymentDetailResponse, 0, len(b.PaymentDetails))
	for _, d := range b.PaymentDetails {
		details = append(details, PaymentDetailResponse{
			PaymentID:   d.PaymentID,
			AmountPaid:  d.AmountPaid,
			PaymentDate: d.PaymentDate,
			Status:      string(d.Status),
		})
	}
	return BillResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		FlatNumber:      b.FlatNumber,
		BillType:        string(b.BillType),
		OriginalAmount:  b.OriginalAmount,
		TotalAmount:     b.TotalAmount,
		AmountPaid:      b.AmountPaid,
		RemainingAmount: b.RemainingAmount,
		Status:          string(b.Status),
		DueDate:         b.DueDate,
		UploadedAt:      b.UploadedAt,
		PaymentDetails:  details,
	}
}

// ToBillResponses converts a slice of bills
func ToBillResponses(bills []billing.Bill) []BillResponse {
	out := make([]BillResponse, 0, len(bills))
	for i := range bills {
		out = append(out, ToBillResponse(&bills[i]))
	}
	return out
}

// PaymentResponse is the API view of a payment
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	BillID        uuid.UUID       `json:"bill_id"`
	FlatNumber    string          `json:"flat_number"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
}

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		BillID:        p.BillID,
		FlatNumber:    p.FlatNumber,
		AmountPaid:    p.AmountPaid,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
	}
}

// ToPaymentResponses converts a slice of payments
func ToPaymentResponses(payments []billing.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, ToPaymentResponse(&payments[i]))
	}
	return out
}

// PaymentResult is returned by operations that move money
type PaymentResult struct {
	Bill    BillResponse    `json:"bill"`
	Payment PaymentResponse `json:"payment"`
}

// BulkIssueResult summarises a bulk issuance
type BulkIssueResult struct {
	Count int            `json:"count"`
	Bills []BillResponse `json:"bills"`
}

// ReportResponse is the billing report for an upload window
type ReportResponse struct {
	From  time.Time                 `json:"from"`
	To    time.Time                 `json:"to"`
	Types []billing.BillTypeSummary `json:"types"`
}

// DashboardResponse is a resident's overview
type DashboardResponse struct {
	PendingBills   []BillResponse    `json:"pending_bills"`
	RecentPayments []PaymentResponse `json:"recent_payments"`
}

// InitiatePaymentResult tells the caller where to pay
type InitiatePaymentResult struct {
	TransactionID  string          `json:"transaction_id"`
	BillID         uuid.UUID       `json:"bill_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	PaymentPageURL string          `json:"payment_page_url"`
}

// ReconciliationResult is the local outcome of a status check
type ReconciliationResult struct {
	Payment           PaymentResponse `json:"payment"`
	Bill              *BillResponse   `json:"bill,omitempty"`
	AlreadyReconciled bool            `json:"already_reconciled"`
	// Reason explains a failed record, e.g. a charge that could not be applied
	Reason string `json:"reason,omitempty"`

	applied bool
}
