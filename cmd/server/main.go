package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockrecon/backend/internal/bootstrap"
	"github.com/stockrecon/backend/internal/infrastructure/config"
	"github.com/stockrecon/backend/internal/infrastructure/logger"
	"github.com/stockrecon/backend/internal/interfaces/http/handler"
	"github.com/stockrecon/backend/internal/interfaces/http/middleware"
	"github.com/stockrecon/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	app, err := bootstrap.New(context.Background(), cfg, version)
	if err != nil {
		panic("Failed to initialize: " + err.Error())
	}
	log := app.Logger
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(ctx); err != nil {
			log.Error("Error during cleanup", zap.Error(err))
		}
	}()

	log.Info("Starting stock reconciliation server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        newEngine(app),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
		return
	}
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the middleware stack and every route.
// Order: panic recovery, request id, tracing, metrics, access log, CORS,
// then body size and deadline limits.
func newEngine(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	log := app.Logger

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	tracing := middleware.DefaultTracingConfig()
	tracing.ServiceName = cfg.Telemetry.ServiceName
	tracing.Enabled = app.Tracing
	engine.Use(middleware.Tracing(tracing))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(app.Meter))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORS(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	checks := make(map[string]handler.HealthCheck, len(app.Checks))
	for name, check := range app.Checks {
		checks[name] = check
	}
	health := handler.NewHealthHandler(version, checks)
	engine.GET("/health", health.Health)
	engine.GET("/api/v1/health", health.Health)

	routes := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewReconciliationHandler(app.Service).Routes()).
		Setup()
	for _, r := range routes {
		log.Debug("Route registered", zap.String("method", r.Method), zap.String("path", r.Path))
	}

	return engine
}
