package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockrecon/backend/internal/bootstrap"
	"github.com/stockrecon/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testApp(checks map[string]func(ctx context.Context) error) *bootstrap.App {
	return &bootstrap.App{
		Config: &config.Config{
			HTTP: config.HTTPConfig{
				RequestTimeout:   time.Second,
				MaxBodySize:      1 << 10,
				CORSAllowOrigins: []string{"https://ops.example.com"},
				CORSAllowMethods: []string{"GET", "POST", "OPTIONS"},
				CORSAllowHeaders: []string{"Content-Type"},
			},
			Telemetry: config.TelemetryConfig{ServiceName: "stockrecon"},
		},
		Logger: zap.NewNop(),
		Checks: checks,
	}
}

func TestNewEngine_Health(t *testing.T) {
	engine := newEngine(testApp(nil))

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"status":"ok"`, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}
}

func TestNewEngine_HealthDegraded(t *testing.T) {
	engine := newEngine(testApp(map[string]func(ctx context.Context) error{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
}

func TestNewEngine_CORSPreflight(t *testing.T) {
	engine := newEngine(testApp(nil))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reconciliations", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewEngine_RejectsOversizedUpload(t *testing.T) {
	engine := newEngine(testApp(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconciliations", http.NoBody)
	req.ContentLength = 4 << 10
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
