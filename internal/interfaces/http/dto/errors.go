package dto

import (
	"net/http"
	"strings"
)

// Error codes returned in ErrorInfo.Code. Format: ERR_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState           = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock      = "ERR_INSUFFICIENT_STOCK"
	ErrCodeDuplicateAllocation    = "ERR_DUPLICATE_ALLOCATION"
	ErrCodeDuplicateSale          = "ERR_DUPLICATE_SALE"
	ErrCodeInvalidInstallmentPlan = "ERR_INVALID_INSTALLMENT_PLAN"
	ErrCodeAlreadyPaid            = "ERR_ALREADY_PAID"
	ErrCodeOutstandingReceivables = "ERR_OUTSTANDING_RECEIVABLES"
	ErrCodeInvalidKitItems        = "ERR_INVALID_KIT_ITEMS"
	ErrCodeDuplicateLine          = "ERR_DUPLICATE_LINE"
)

// Input error codes
const (
	ErrCodeBadRequest    = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput  = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON   = "ERR_INVALID_JSON"
	ErrCodeFileTooLarge  = "ERR_FILE_TOO_LARGE"
	ErrCodeRateLimited   = "ERR_RATE_LIMITED"
	ErrCodeBodyTooLarge  = "ERR_BODY_TOO_LARGE"
	ErrCodeInvalidFormat = "ERR_INVALID_FORMAT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors: 422 when the request can never succeed as sent,
	// 409 when it collides with current state
	ErrCodeInvalidState:           http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:      http.StatusUnprocessableEntity,
	ErrCodeDuplicateAllocation:    http.StatusConflict,
	ErrCodeDuplicateSale:          http.StatusConflict,
	ErrCodeInvalidInstallmentPlan: http.StatusUnprocessableEntity,
	ErrCodeAlreadyPaid:            http.StatusConflict,
	ErrCodeOutstandingReceivables: http.StatusConflict,
	ErrCodeInvalidKitItems:        http.StatusUnprocessableEntity,
	ErrCodeDuplicateLine:          http.StatusUnprocessableEntity,

	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeInvalidFormat: http.StatusBadRequest,
	ErrCodeFileTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeBodyTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:   http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	// field level rule violations raised by entity constructors
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_STATE":            ErrCodeInvalidState,
	"UNAUTHORIZED":             ErrCodeUnauthorized,
	"FORBIDDEN":                ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":       ErrCodeInsufficientStock,
	"DUPLICATE_ALLOCATION":     ErrCodeDuplicateAllocation,
	"DUPLICATE_SALE":           ErrCodeDuplicateSale,
	"INVALID_INSTALLMENT_PLAN": ErrCodeInvalidInstallmentPlan,
	"ALREADY_PAID":             ErrCodeAlreadyPaid,
	"OUTSTANDING_RECEIVABLES":  ErrCodeOutstandingReceivables,
	"INVALID_KIT_ITEMS":        ErrCodeInvalidKitItems,
	"DUPLICATE_LINE":           ErrCodeDuplicateLine,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in API format, and unknown codes, are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
