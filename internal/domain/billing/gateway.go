package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderStatus is the provider's status code for an order
type OrderStatus string

const (
	OrderStatusCharged              OrderStatus = "CHARGED"
	OrderStatusAuthenticationFailed OrderStatus = "AUTHENTICATION_FAILED"
	OrderStatusAuthorizationFailed  OrderStatus = "AUTHORIZATION_FAILED"
)

// IsCharged returns true if the provider settled the order
func (s OrderStatus) IsCharged() bool {
	return s == OrderStatusCharged
}

// SessionRequest opens a hosted payment session
type SessionRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	CustomerRef string
	ReturnURL   string
	Currency    string
	// BillRef travels with the order so the status check can find the bill
	// without any local record of the attempt.
	BillRef string
}

// SessionResponse is the provider's answer to a session request
type SessionResponse struct {
	SessionAmount  decimal.Decimal
	PaymentPageURL string
}

// OrderStatusResponse is the provider's view of an order
type OrderStatusResponse struct {
	OrderID     string
	Status      OrderStatus
	Amount      decimal.Decimal
	CustomerRef string
	BillRef     string
}

// PaymentGateway is the port to the external payment provider.
// Implementations wrap ErrGatewayUnavailable for network failures and
// timeouts, and ErrGatewayRequestFailed when the provider rejects a call.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error)
	GetOrderStatus(ctx context.Context, orderID string) (*OrderStatusResponse, error)
}

// IsPending returns true for codes the provider may still move to a terminal state
func (s OrderStatus) IsPending() bool {
	switch s {
	case "NEW", "PENDING", "PENDING_VBV", "STARTED", "AUTHORIZING":
		return true
	}
	return false
}
