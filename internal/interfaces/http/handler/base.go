// Package handler holds the gin handlers of the reconciliation API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stockrecon/backend/internal/domain/reconciliation"
	"github.com/stockrecon/backend/internal/domain/shared"
	csvimport "github.com/stockrecon/backend/internal/infrastructure/import"
	"github.com/stockrecon/backend/internal/infrastructure/logger"
	"github.com/stockrecon/backend/internal/interfaces/http/dto"
	"github.com/stockrecon/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// codedError is implemented by errors carrying a stable error code
type codedError interface {
	error
	Code() string
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts an error into an HTTP response. The status follows the
// error code; unmapped labels and sales file row errors travel as details.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.HandleErrorWithData(c, err, nil)
}

// HandleErrorWithData is HandleError with a payload kept in the data field,
// used to return the report of a run that did not complete.
func (h *BaseHandler) HandleErrorWithData(c *gin.Context, err error, data any) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	resp, status := errorResponse(err, middleware.GetRequestID(c))
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	resp.Data = data
	c.JSON(status, resp)
}

func errorResponse(err error, requestID string) (dto.Response, int) {
	var (
		unmapped  *reconciliation.UnmappedProductsError
		salesFile *csvimport.SalesFileError
		domainErr *shared.DomainError
		coded     codedError
	)

	switch {
	case errors.As(err, &unmapped):
		return dto.NewErrorResponseWithDetails(unmapped.Code(), unmapped.Error(), requestID,
			dto.UnmappedDetails{Labels: unmapped.Labels}), dto.GetHTTPStatus(unmapped.Code())

	case errors.As(err, &salesFile):
		return dto.NewErrorResponseWithDetails(salesFile.Code(), salesFile.Error(), requestID,
			dto.SalesFileDetails{Rows: salesFile.Rows, TotalErrors: salesFile.Total}), dto.GetHTTPStatus(salesFile.Code())

	case errors.As(err, &domainErr):
		return dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, requestID),
			dto.GetHTTPStatus(domainErr.Code)

	case errors.As(err, &coded):
		// Keep the wrapping context, it names the table or product involved
		return dto.NewErrorResponseWithRequestID(coded.Code(), err.Error(), requestID),
			dto.GetHTTPStatus(coded.Code())

	case errors.Is(err, context.DeadlineExceeded):
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeTimeout, "Request timed out", requestID),
			http.StatusGatewayTimeout
	}

	return dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An unexpected error occurred", requestID),
		http.StatusInternalServerError
}
