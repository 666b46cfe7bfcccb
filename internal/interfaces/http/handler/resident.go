package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Nitish8696/flatgurugram/internal/application/identity"
)

// ResidentHandler serves the admin resident directory
type ResidentHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewResidentHandler creates a new resident handler
func NewResidentHandler(authService *identity.AuthService) *ResidentHandler {
	return &ResidentHandler{authService: authService}
}

// ImportResidentsRequest carries already-parsed resident rows
type ImportResidentsRequest struct {
	Residents []identity.ImportResidentRow `json:"residents" binding:"required,min=1"`
}

// List returns residents, optionally filtered with ?complex=
// GET /api/admin/residents
func (h *ResidentHandler) List(c *gin.Context) {
	residents, err := h.authService.ListResidents(c.Request.Context(), h.identity(c), c.Query("complex"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, residents)
}

// Import bulk-creates residents, reporting skipped rows.
// POST /api/admin/residents/import
func (h *ResidentHandler) Import(c *gin.Context) {
	var req ImportResidentsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.authService.ImportResidents(c.Request.Context(), h.identity(c), req.Residents)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
