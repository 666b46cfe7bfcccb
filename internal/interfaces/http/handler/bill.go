package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appbilling "github.com/Nitish8696/flatgurugram/internal/application/billing"
	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/dto"
)

// BillHandler serves the admin bill endpoints
type BillHandler struct {
	BaseHandler
	bills *appbilling.BillService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(bills *appbilling.BillService) *BillHandler {
	return &BillHandler{bills: bills}
}

// IssueBillRequest names the owner by user_id or flat_number
type IssueBillRequest struct {
	UserID         string          `json:"user_id" binding:"omitempty,uuid"`
	FlatNumber     string          `json:"flat_number" binding:"required_without=UserID"`
	BillType       string          `json:"bill_type" binding:"required,bill_type"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DueDate        string          `json:"due_date" binding:"required"`
}

// BulkIssueRequest carries already-parsed bill rows
type BulkIssueRequest struct {
	Bills []appbilling.BulkBillRow `json:"bills" binding:"required,min=1,dive"`
}

// UpdateBillRequest changes due date and/or original amount. Omitted fields stay.
type UpdateBillRequest struct {
	DueDate        *string          `json:"due_date"`
	OriginalAmount *decimal.Decimal `json:"original_amount"`
}

// Issue creates one bill, folding overdue balances of the same type.
// POST /api/admin/bills
func (h *BillHandler) Issue(c *gin.Context) {
	var req IssueBillRequest
	if !h.BindJSON(c, &req) {
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Invalid due_date")
		return
	}
	input := appbilling.IssueBillInput{
		FlatNumber:     req.FlatNumber,
		BillType:       req.BillType,
		OriginalAmount: req.OriginalAmount,
		DueDate:        dueDate,
	}
	if req.UserID != "" {
		input.UserID = uuid.MustParse(req.UserID)
	}

	bill, err := h.bills.IssueBill(c.Request.Context(), h.identity(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// BulkIssue issues a batch of bills atomically.
// POST /api/admin/bills/import
func (h *BillHandler) BulkIssue(c *gin.Context) {
	var req BulkIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.bills.BulkIssue(c.Request.Context(), h.identity(c), req.Bills)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List returns every bill.
// GET /api/admin/bills
func (h *BillHandler) List(c *gin.Context) {
	bills, err := h.bills.ListAllBills(c.Request.Context(), h.identity(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bills)
}

// ListForUser returns a user's bills, latest due date first.
// GET /api/admin/users/:userId/bills
func (h *BillHandler) ListForUser(c *gin.Context) {
	userID, ok := h.PathUUID(c, "userId")
	if !ok {
		return
	}
	bills, err := h.bills.ListUserBills(c.Request.Context(), h.identity(c), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bills)
}

// Get returns one bill.
// GET /api/admin/bills/:id
func (h *BillHandler) Get(c *gin.Context) {
	billID, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	bill, err := h.bills.GetBill(c.Request.Context(), h.identity(c), billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Update corrects a bill.
// PUT /api/admin/bills/:id
func (h *BillHandler) Update(c *gin.Context) {
	billID, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateBillRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input := appbilling.UpdateBillInput{OriginalAmount: req.OriginalAmount}
	if req.DueDate != nil {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Invalid due_date")
			return
		}
		input.DueDate = &dueDate
	}

	bill, err := h.bills.UpdateBill(c.Request.Context(), h.identity(c), billID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Report summarises bills uploaded between ?from= and ?to= by type.
// GET /api/admin/reports/bills
func (h *BillHandler) Report(c *gin.Context) {
	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
		return
	}
	report, err := h.bills.GenerateReport(c.Request.Context(), h.identity(c), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
