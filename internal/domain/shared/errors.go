package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches another DomainError by code so sentinel comparisons survive wrapping
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error codes shared across layers
const (
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeCollaboratorFailure  = "COLLABORATOR_FAILURE"
	CodeMalformedTable       = "MALFORMED_TABLE"
	CodeInvalidSalesFile     = "INVALID_SALES_FILE"
	CodeUnmappedProducts     = "UNMAPPED_PRODUCTS"
	CodeAmbiguousMapping     = "AMBIGUOUS_PRODUCT_MAPPING"
	CodeDuplicateAdminCode   = "DUPLICATE_ADMIN_CODE"
	CodeUnknownAdminCode     = "UNKNOWN_ADMIN_CODE"
	CodeInvalidWeightFactor  = "INVALID_WEIGHT_FACTOR"
	CodeUnsupportedConvert   = "UNSUPPORTED_CONVERSION"
	CodeInvalidStockQuantity = "INVALID_STOCK_QUANTITY"
	CodeRunInProgress        = "RUN_IN_PROGRESS"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrCollaboratorFailure = NewDomainError(CodeCollaboratorFailure, "Master data store is unavailable")
	ErrMalformedTable      = NewDomainError(CodeMalformedTable, "Master data table is malformed")
	ErrRunInProgress       = NewDomainError(CodeRunInProgress, "Another reconciliation is writing the stock table")
)
