package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appbilling "github.com/Nitish8696/flatgurugram/internal/application/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/dto"
)

// PaymentHandler serves payment, dashboard and gateway endpoints
type PaymentHandler struct {
	BaseHandler
	payments       *appbilling.PaymentService
	reconciliation *appbilling.ReconciliationService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *appbilling.PaymentService, reconciliation *appbilling.ReconciliationService) *PaymentHandler {
	return &PaymentHandler{payments: payments, reconciliation: reconciliation}
}

// PayBillRequest is a direct payment against a bill
type PayBillRequest struct {
	BillID        string          `json:"bill_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" binding:"max=50"`
}

// InitiatePaymentRequest opens a gateway session. A missing amount pays the remainder.
type InitiatePaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// Pay applies a direct payment to the caller's bill.
// POST /api/auth/pay-bill
func (h *PaymentHandler) Pay(c *gin.Context) {
	var req PayBillRequest
	if !h.BindJSON(c, &req) {
		return
	}
	billID, err := parseUUID(req.BillID)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Invalid bill_id")
		return
	}

	result, err := h.payments.PayBill(c.Request.Context(), h.identity(c), appbilling.PayBillInput{
		BillID:        billID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListMine returns the caller's payments, newest first, with ?page= and ?limit=
// GET /api/auth/payments
func (h *PaymentHandler) ListMine(c *gin.Context) {
	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Invalid pagination parameters")
		return
	}
	page, err := h.payments.ListMyPayments(c.Request.Context(), h.identity(c), shared.PageRequest{
		Page:     query.Page,
		PageSize: query.Limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListForUser returns a user's payments within an optional ?from=&to= range.
// GET /api/admin/users/:userId/payments
func (h *PaymentHandler) ListForUser(c *gin.Context) {
	userID, ok := h.PathUUID(c, "userId")
	if !ok {
		return
	}
	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
		return
	}
	payments, err := h.payments.ListUserPayments(c.Request.Context(), h.identity(c), userID, billing.PaymentFilter{From: from, To: to})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Dashboard returns pending bills and recent payments of the caller.
// GET /api/auth/dashboard
func (h *PaymentHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.payments.Dashboard(c.Request.Context(), h.identity(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// Initiate opens a hosted gateway payment for a bill.
// POST /api/auth/bills/:id/initiate-payment
func (h *PaymentHandler) Initiate(c *gin.Context) {
	billID, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	var req InitiatePaymentRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	result, err := h.reconciliation.InitiatePayment(c.Request.Context(), h.identity(c), billID, optionalDecimal(req.Amount))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Status reconciles a gateway transaction with the local ledger.
// GET /api/auth/pay-status/:transactionId
func (h *PaymentHandler) Status(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		h.BadRequest(c, "transactionId is required")
		return
	}
	result, err := h.reconciliation.CheckStatus(c.Request.Context(), h.identity(c), transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
