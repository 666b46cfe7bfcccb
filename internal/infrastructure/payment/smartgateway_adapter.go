package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
)

const defaultSmartGatewayTimeout = 20 * time.Second

// maxResponseBytes bounds how much of a provider response is read
const maxResponseBytes = 1 << 20

// SmartGatewayAdapter implements billing.PaymentGateway against a hosted
// payment page provider (session + order status API).
type SmartGatewayAdapter struct {
	config     *SmartGatewayConfig
	httpClient *http.Client
}

// SmartGatewayOption customises the adapter
type SmartGatewayOption func(*SmartGatewayAdapter)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) SmartGatewayOption {
	return func(a *SmartGatewayAdapter) {
		a.httpClient = c
	}
}

// NewSmartGatewayAdapter creates a new adapter
func NewSmartGatewayAdapter(config *SmartGatewayConfig, opts ...SmartGatewayOption) (*SmartGatewayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultSmartGatewayTimeout
	}

	a := &SmartGatewayAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// CreateSession opens a payment page session for one order
func (a *SmartGatewayAdapter) CreateSession(ctx context.Context, req billing.SessionRequest) (*billing.SessionResponse, error) {
	body := smartGatewaySessionRequest{
		OrderID:             req.OrderID,
		Amount:              req.Amount.StringFixed(2),
		CustomerID:          req.CustomerRef,
		PaymentPageClientID: a.config.ClientID,
		Action:              smartGatewayActionPaymentPage,
		ReturnURL:           req.ReturnURL,
		Currency:            req.Currency,
		UDF1:                req.BillRef,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("smartgateway: failed to marshal session request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, smartGatewaySessionPath, req.CustomerRef, payload)
	if err != nil {
		return nil, err
	}

	var resp smartGatewaySessionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrGatewayInvalidResponse, err)
	}
	if resp.PaymentLinks.Web == "" {
		return nil, fmt.Errorf("%w: session has no payment link", billing.ErrGatewayInvalidResponse)
	}

	return &billing.SessionResponse{
		SessionAmount:  resp.SDKPayload.Payload.Amount,
		PaymentPageURL: resp.PaymentLinks.Web,
	}, nil
}

// GetOrderStatus fetches the provider's current view of an order
func (a *SmartGatewayAdapter) GetOrderStatus(ctx context.Context, orderID string) (*billing.OrderStatusResponse, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", billing.ErrGatewayRequestFailed)
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, smartGatewayOrdersPath+url.PathEscape(orderID), "", nil)
	if err != nil {
		return nil, err
	}

	var resp smartGatewayOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrGatewayInvalidResponse, err)
	}
	if resp.Status == "" {
		return nil, fmt.Errorf("%w: order has no status", billing.ErrGatewayInvalidResponse)
	}

	return &billing.OrderStatusResponse{
		OrderID:     resp.OrderID,
		Status:      billing.OrderStatus(strings.ToUpper(resp.Status)),
		Amount:      resp.Amount,
		CustomerRef: resp.CustomerID,
		BillRef:     resp.UDF1,
	}, nil
}

// doRequest performs an authenticated call. Network failures and 5xx
// answers wrap ErrGatewayUnavailable, 4xx answers ErrGatewayRequestFailed.
func (a *SmartGatewayAdapter) doRequest(ctx context.Context, method, path, customerID string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(a.config.BaseURL, "/")+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("smartgateway: failed to create request: %w", err)
	}

	req.SetBasicAuth(a.config.APIKey, "")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-merchantid", a.config.MerchantID)
	if customerID != "" {
		req.Header.Set("x-customerid", customerID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", billing.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d", billing.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errResp smartGatewayErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.ErrorCode != "" {
			return nil, fmt.Errorf("%w: %s - %s", billing.ErrGatewayRequestFailed, errResp.ErrorCode, errResp.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: HTTP %d", billing.ErrGatewayRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

var _ billing.PaymentGateway = (*SmartGatewayAdapter)(nil)
