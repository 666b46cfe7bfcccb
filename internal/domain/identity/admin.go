package identity

import (
	"strings"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
)

// Admin manages bills and residents
type Admin struct {
	shared.BaseAggregateRoot
	Email        string
	Name         string
	PasswordHash string
}

// NewAdmin creates an administrator account
func NewAdmin(email, name, password string) (*Admin, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Name is required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Admin{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              name,
		PasswordHash:      hash,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (a *Admin) VerifyPassword(password string) bool {
	return verifyPassword(a.PasswordHash, password)
}
