package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stockrecon/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, h *HealthHandler) (int, dto.HealthResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Health(c)

	var resp struct {
		Data dto.HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp.Data
}

func TestHealthHandler(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		status, body := serveHealth(t, NewHealthHandler("1.2.0", nil))

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "1.2.0", body.Version)
		assert.NotEmpty(t, body.Uptime)
		assert.Empty(t, body.Checks)
	})

	t.Run("healthy dependencies", func(t *testing.T) {
		h := NewHealthHandler("1.2.0", map[string]HealthCheck{
			"cache": func(ctx context.Context) error { return nil },
		})
		status, body := serveHealth(t, h)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, map[string]string{"cache": "ok"}, body.Checks)
	})

	t.Run("failing dependency", func(t *testing.T) {
		h := NewHealthHandler("1.2.0", map[string]HealthCheck{
			"cache":    func(ctx context.Context) error { return nil },
			"database": func(ctx context.Context) error { return errors.New("connection refused") },
		})
		status, body := serveHealth(t, h)

		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "connection refused", body.Checks["database"])
		assert.Equal(t, "ok", body.Checks["cache"])
	})
}
