package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Nitish8696/flatgurugram/internal/application/identity"
	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/middleware"
)

// AuthHandler handles registration, login and session endpoints
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterResident creates a resident account.
// POST /api/auth/register
func (h *AuthHandler) RegisterResident(c *gin.Context) {
	var req identity.RegisterResidentInput
	if !h.BindJSON(c, &req) {
		return
	}
	resident, err := h.authService.RegisterResident(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resident)
}

// LoginResident authenticates a resident by flat number.
// POST /api/auth/login
func (h *AuthHandler) LoginResident(c *gin.Context) {
	var req identity.ResidentLoginInput
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.authService.LoginResident(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterAdmin creates an admin. Open while no admin exists, admin-only afterwards.
// POST /api/admin/register
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req identity.RegisterAdminInput
	if !h.BindJSON(c, &req) {
		return
	}
	admin, err := h.authService.RegisterAdmin(c.Request.Context(), h.identity(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, admin)
}

// LoginAdmin authenticates an admin by email.
// POST /api/admin/login
func (h *AuthHandler) LoginAdmin(c *gin.Context) {
	var req identity.AdminLoginInput
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.authService.LoginAdmin(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh exchanges a refresh token for a new pair.
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identity.RefreshTokenInput
	if !h.BindJSON(c, &req) {
		return
	}
	pair, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pair)
}

// Logout revokes the access token in use.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	input := identity.LogoutInput{RefreshToken: req.RefreshToken}
	if claims := middleware.GetJWTClaims(c); claims != nil {
		input.AccessJTI = claims.ID
		input.AccessTTL = claims.GetRemainingTTL()
	}
	if err := h.authService.Logout(c.Request.Context(), h.identity(c), input); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
