package identity

import (
	"regexp"
	"strings"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for new hashes
var PasswordCost = bcrypt.DefaultCost

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterRegex = regexp.MustCompile(`[a-zA-Z]`)
	digitRegex  = regexp.MustCompile(`[0-9]`)
)

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError(shared.CodeValidation, "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError(shared.CodeValidation, "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError(shared.CodeValidation, "Password cannot exceed 72 characters")
	}
	if !letterRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return shared.NewDomainError(shared.CodeValidation, "Password must contain at least one letter and one number")
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", shared.NewDomainError(shared.CodeValidation, "Email is required")
	}
	if len(email) > 200 {
		return "", shared.NewDomainError(shared.CodeValidation, "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return "", shared.NewDomainError(shared.CodeValidation, "Invalid email format")
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
