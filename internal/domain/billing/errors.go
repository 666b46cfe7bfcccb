package billing

import (
	"errors"
	"fmt"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
)

// Gateway adapter errors. Adapters wrap one of these so the application
// layer can tell a rejection from an outage.
var (
	ErrGatewayUnavailable     = errors.New("gateway: temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("gateway: request failed")
	ErrGatewayInvalidResponse = errors.New("gateway: invalid response")
)

// Sentinels usable with errors.Is; matching is by code.
var (
	ErrValidation        = shared.NewDomainError(shared.CodeValidation, "validation failed")
	ErrGateway           = shared.NewDomainError(shared.CodeGateway, "payment gateway error")
	ErrTransientProvider = shared.NewDomainError(shared.CodeTransientGateway, "payment provider temporarily unavailable")
)

// NewValidationError returns a VALIDATION_ERROR naming the failed constraint
func NewValidationError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(shared.CodeValidation, fmt.Sprintf(format, args...))
}

// NewConflictError returns a CONCURRENCY_CONFLICT for a competing operation
func NewConflictError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(shared.CodeConflict, fmt.Sprintf(format, args...))
}

// NewNotFoundError returns a NOT_FOUND error for the named resource
func NewNotFoundError(resource string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeNotFound, resource+" not found")
}

// NewGatewayError returns a GATEWAY_ERROR. The message must never carry
// provider bodies or credentials.
func NewGatewayError(message string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeGateway, message)
}

// NewTransientProviderError returns a retryable provider error
func NewTransientProviderError(message string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeTransientGateway, message)
}
