package payment

import "github.com/shopspring/decimal"

const (
	smartGatewayActionPaymentPage = "paymentPage"
	smartGatewaySessionPath       = "/session"
	smartGatewayOrdersPath        = "/orders/"
)

// smartGatewaySessionRequest is the body of POST /session
type smartGatewaySessionRequest struct {
	OrderID             string `json:"order_id"`
	Amount              string `json:"amount"`
	CustomerID          string `json:"customer_id"`
	PaymentPageClientID string `json:"payment_page_client_id,omitempty"`
	Action              string `json:"action"`
	ReturnURL           string `json:"return_url,omitempty"`
	Currency            string `json:"currency"`
	UDF1                string `json:"udf1,omitempty"`
	FirstName           string `json:"first_name,omitempty"`
	Description         string `json:"description,omitempty"`
}

type smartGatewaySessionResponse struct {
	Status       string `json:"status"`
	ID           string `json:"id"`
	OrderID      string `json:"order_id"`
	PaymentLinks struct {
		Web string `json:"web"`
	} `json:"payment_links"`
	SDKPayload struct {
		Payload struct {
			Amount decimal.Decimal `json:"amount"`
		} `json:"payload"`
	} `json:"sdk_payload"`
}

type smartGatewayOrderResponse struct {
	OrderID    string          `json:"order_id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	CustomerID string          `json:"customer_id"`
	UDF1       string          `json:"udf1"`
}

type smartGatewayErrorResponse struct {
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}
