package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so a contextual error
// built with NewDomainError("NOT_FOUND", "...") satisfies errors.Is(err, ErrNotFound).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Domain error codes
const (
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeInvalidState           = "INVALID_STATE"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeDuplicateAllocation    = "DUPLICATE_ALLOCATION"
	CodeDuplicateSale          = "DUPLICATE_SALE"
	CodeInvalidInstallmentPlan = "INVALID_INSTALLMENT_PLAN"
	CodeAlreadyPaid            = "ALREADY_PAID"
	CodeOutstandingReceivables = "OUTSTANDING_RECEIVABLES"
	CodeInvalidKitItems        = "INVALID_KIT_ITEMS"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock      = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrDuplicateAllocation    = NewDomainError(CodeDuplicateAllocation, "Material already allocated to this project")
	ErrDuplicateSale          = NewDomainError(CodeDuplicateSale, "Quote already has a sale")
	ErrInvalidInstallmentPlan = NewDomainError(CodeInvalidInstallmentPlan, "Invalid installment plan")
	ErrAlreadyPaid            = NewDomainError(CodeAlreadyPaid, "Receivable already paid")
	ErrOutstandingReceivables = NewDomainError(CodeOutstandingReceivables, "Sale has outstanding receivables")
	ErrInvalidKitItems        = NewDomainError(CodeInvalidKitItems, "Invalid kit informational items")
)

// ErrorCode returns the DomainError code carried by err, or "" when err is not a domain error.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
