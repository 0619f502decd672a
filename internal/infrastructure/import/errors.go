package csvimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stockrecon/backend/internal/domain/shared"
)

// Row-level error codes
const (
	ErrCodeRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidType   = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeInvalidRange  = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeMalformedRow  = "ERR_IMPORT_MALFORMED_ROW"
)

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("invalid file encoding")
	ErrMissingHeader   = errors.New("CSV file missing header row")
)

// RowError is a problem with one cell or line of the file
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection gathers row errors up to a limit while counting all of them
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a collection keeping at most maxErrors entries
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records an error
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the number of errors seen, kept or not
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if any error was added
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// SalesFileError rejects a sales extract before reconciliation starts
type SalesFileError struct {
	Reason string     `json:"message"`
	Rows   []RowError `json:"rows,omitempty"`
	Total  int        `json:"total_errors,omitempty"`
	cause  error
}

// Error implements the error interface
func (e *SalesFileError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid sales file: ")
	sb.WriteString(e.Reason)
	for i, r := range e.Rows {
		if i == 3 {
			sb.WriteString(fmt.Sprintf("; and %d more", e.Total-3))
			break
		}
		sb.WriteString("; ")
		sb.WriteString(r.Error())
	}
	return sb.String()
}

// Code returns the error code
func (e *SalesFileError) Code() string {
	return shared.CodeInvalidSalesFile
}

// Unwrap returns the underlying cause, if any
func (e *SalesFileError) Unwrap() error {
	return e.cause
}

// Is lets errors.Is match the shared INVALID_SALES_FILE domain error
func (e *SalesFileError) Is(target error) bool {
	var de *shared.DomainError
	return errors.As(target, &de) && de.Code == shared.CodeInvalidSalesFile
}
