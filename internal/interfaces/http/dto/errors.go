package dto

import (
	"net/http"

	"github.com/stockrecon/backend/internal/domain/shared"
)

// Transport error codes. Domain error codes are returned unchanged.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when query or form binding fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeTimeout is used when the request deadline expires
	ErrCodeTimeout = "ERR_TIMEOUT"
	// ErrCodeNotFound is used for unknown routes
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
	ErrCodeNotFound:        http.StatusNotFound,

	// Input problems -> 400
	shared.CodeInvalidInput:     http.StatusBadRequest,
	shared.CodeInvalidSalesFile: http.StatusBadRequest,

	// Batch rejected by the engine -> 422
	shared.CodeUnmappedProducts: http.StatusUnprocessableEntity,
	shared.CodeAmbiguousMapping: http.StatusUnprocessableEntity,

	shared.CodeNotFound:      http.StatusNotFound,
	shared.CodeRunInProgress: http.StatusConflict,

	// Master data store unavailable or unusable -> 502
	shared.CodeCollaboratorFailure: http.StatusBadGateway,
	shared.CodeMalformedTable:      http.StatusBadGateway,
	shared.CodeDuplicateAdminCode:  http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
