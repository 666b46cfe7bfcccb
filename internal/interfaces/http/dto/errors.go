package dto

import (
	"net/http"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
)

// Error codes returned in ErrorInfo.Code. Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeUnauthorized        = "ERR_UNAUTHORIZED"
	ErrCodeForbidden           = "ERR_FORBIDDEN"
	ErrCodeTokenExpired        = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid        = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked        = "ERR_TOKEN_REVOKED"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeGateway             = "ERR_GATEWAY"
	ErrCodeGatewayUnavailable  = "ERR_GATEWAY_UNAVAILABLE"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeServiceUnavailable  = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeTokenExpired:        http.StatusUnauthorized,
	ErrCodeTokenInvalid:        http.StatusUnauthorized,
	ErrCodeTokenRevoked:        http.StatusUnauthorized,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeGateway:             http.StatusBadGateway,
	ErrCodeGatewayUnavailable:  http.StatusServiceUnavailable,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeServiceUnavailable:  http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping translates shared.DomainError codes to API codes
var domainCodeMapping = map[string]string{
	shared.CodeValidation:       ErrCodeValidation,
	shared.CodeNotFound:         ErrCodeNotFound,
	shared.CodeAlreadyExists:    ErrCodeAlreadyExists,
	shared.CodeUnauthorized:     ErrCodeUnauthorized,
	shared.CodeForbidden:        ErrCodeForbidden,
	shared.CodeConflict:         ErrCodeConcurrencyConflict,
	shared.CodeGateway:          ErrCodeGateway,
	shared.CodeTransientGateway: ErrCodeGatewayUnavailable,
}

// NormalizeErrorCode converts a domain error code to its API code.
// API codes and unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
