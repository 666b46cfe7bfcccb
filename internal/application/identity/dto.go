package identity

import (
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/identity"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// RegisterResidentInput contains the input for resident registration
type RegisterResidentInput struct {
	FlatNumber string `json:"flat_number" binding:"required,max=50"`
	Name       string `json:"name" binding:"required,max=200"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"max=50"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	Complex    string `json:"complex" binding:"required"`
}

// ResidentLoginInput contains the input for resident login
type ResidentLoginInput struct {
	FlatNumber string `json:"flat_number" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// RegisterAdminInput contains the input for admin registration
type RegisterAdminInput struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,max=200"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// AdminLoginInput contains the input for admin login
type AdminLoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput contains the input for logout
type LogoutInput struct {
	AccessJTI    string        // JWT ID of the access token in use
	AccessTTL    time.Duration // remaining lifetime of that token
	RefreshToken string        // optional, revoked as well when valid
}

// ImportResidentRow is one row of a bulk resident import
type ImportResidentRow struct {
	FlatNumber string `json:"flat_number"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	Complex    string `json:"complex"`
}

// SkippedRow explains why an import row was not inserted
type SkippedRow struct {
	Row        int    `json:"row"`
	FlatNumber string `json:"flat_number"`
	Reason     string `json:"reason"`
}

// ImportResult summarises a bulk resident import
type ImportResult struct {
	Created int          `json:"created"`
	Skipped []SkippedRow `json:"skipped"`
}

// ResidentResponse is the public view of a resident
type ResidentResponse struct {
	ID         uuid.UUID `json:"id"`
	FlatNumber string    `json:"flat_number"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Complex    string    `json:"complex"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResidentResponse converts a resident to its public view
func ToResidentResponse(r *identity.Resident) ResidentResponse {
	return ResidentResponse{
		ID:         r.ID,
		FlatNumber: r.FlatNumber,
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Complex:    string(r.Complex),
		CreatedAt:  r.CreatedAt,
	}
}

// AdminResponse is the public view of an admin
type AdminResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// LoginResult contains the tokens and profile returned after login
type LoginResult struct {
	Tokens   *auth.TokenPair   `json:"tokens"`
	Resident *ResidentResponse `json:"resident,omitempty"`
	Admin    *AdminResponse    `json:"admin,omitempty"`
}
