package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stockrecon/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	type query struct {
		Limit int `form:"limit" binding:"omitempty,min=0,max=10"`
	}
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		var q query
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name    string
		query   string
		status  int
		field   string
		message string
	}{
		{"valid", "limit=3", http.StatusOK, "", ""},
		{"out of range", "limit=50", http.StatusBadRequest, "limit", "Must be at most 10"},
		{"not a number", "limit=abc", http.StatusBadRequest, "", "invalid syntax"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test?"+tt.query, nil))

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				return
			}

			var resp struct {
				Error struct {
					Code      string                 `json:"code"`
					RequestID string                 `json:"request_id"`
					Details   []dto.ValidationDetail `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			assert.Contains(t, resp.Error.Details[0].Message, tt.message)
		})
	}
}
