package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/interfaces/http/dto"
	"github.com/stockrecon/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
)

type codedTestError struct{}

func (codedTestError) Error() string { return "weight factor missing" }
func (codedTestError) Code() string  { return shared.CodeInvalidInput }

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"domain error uses its message", shared.WrapDomainError(shared.CodeMalformedTable, "table 'stock' row 4: code is not an integer", fmt.Errorf("strconv")),
			http.StatusBadGateway, shared.CodeMalformedTable, "table 'stock' row 4: code is not an integer"},
		{"coded error", fmt.Errorf("wrapped: %w", codedTestError{}), http.StatusBadRequest, shared.CodeInvalidInput, "wrapped: weight factor missing"},
		{"deadline", fmt.Errorf("read: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, dto.ErrCodeTimeout, "Request timed out"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, status := errorResponse(tt.err, "req-1")

			assert.Equal(t, tt.status, status)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.msg, resp.Error.Message)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, nil)

	assert.False(t, c.Writer.Written())
}

func TestBaseHandler_BadRequest(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(middleware.RequestIDKey, "req-9")

	h.BadRequest(c, "multipart field 'file' is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_BAD_REQUEST","message":"multipart field 'file' is required","request_id":"req-9"}}`, w.Body.String())
}
