// Package bootstrap wires configuration into a ready ReconciliationService.
// The HTTP server and the operator CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/domain/reconciliation"
	"github.com/stockrecon/backend/internal/infrastructure/cache"
	"github.com/stockrecon/backend/internal/infrastructure/config"
	csvimport "github.com/stockrecon/backend/internal/infrastructure/import"
	"github.com/stockrecon/backend/internal/infrastructure/logger"
	"github.com/stockrecon/backend/internal/infrastructure/persistence"
	"github.com/stockrecon/backend/internal/infrastructure/sheets"
	"github.com/stockrecon/backend/internal/infrastructure/telemetry"
	"github.com/stockrecon/backend/internal/infrastructure/workbook"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// App holds the wired service and everything that must be closed with it
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Service *appreconcile.ReconciliationService
	Meter   metric.Meter
	Tracing bool

	// Checks probe the external dependencies, keyed by name
	Checks map[string]func(ctx context.Context) error

	closers []closer
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// New builds the telemetry pipeline, the logger, the table store, the cache
// and the service, in that order. On error everything already opened is closed.
func New(ctx context.Context, cfg *config.Config, version string) (app *App, err error) {
	app = &App{
		Config: cfg,
		Checks: make(map[string]func(ctx context.Context) error),
	}
	defer func() {
		if err != nil {
			_ = app.Close(context.WithoutCancel(ctx))
			app = nil
		}
	}()

	tcfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Environment:       cfg.App.Env,
		StoreDriver:       cfg.Store.Driver,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}

	// The log bridge comes first so the application logger can tee into it
	lp, err := telemetry.NewLoggerProvider(ctx, tcfg)
	if err != nil {
		return app, fmt.Errorf("failed to initialize log export: %w", err)
	}
	app.addCloser("log export", lp.Shutdown)

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, lp.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		return app, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = log
	app.addCloser("logger", func(context.Context) error {
		_ = log.Sync()
		return nil
	})

	tp, err := telemetry.NewTracerProvider(ctx, tcfg, log)
	if err != nil {
		return app, err
	}
	app.Tracing = tp.IsEnabled()
	app.addCloser("tracer", tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, tcfg, log)
	if err != nil {
		return app, err
	}
	app.addCloser("meter", mp.Shutdown)
	app.Meter = mp.Meter("stockrecon")

	runMetrics, err := telemetry.NewRunMetrics(app.Meter)
	if err != nil {
		return app, err
	}

	store, err := app.openStore(ctx)
	if err != nil {
		return app, err
	}

	backend, err := cache.NewFactory(cfg.Cache, cfg.Redis, cfg.Reconcile, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		return app, err
	}
	app.addCloser("cache", func(context.Context) error { return backend.Close() })
	if backend.Driver == "redis" {
		app.Checks["redis"] = backend.Ping
	}

	units, err := reconciliation.NewUnitCatalog(cfg.Units.Count, cfg.Units.Weight)
	if err != nil {
		return app, fmt.Errorf("invalid unit configuration: %w", err)
	}
	engine := reconciliation.NewEngine(
		reconciliation.NewUnitConverter(units),
		reconciliation.WithAuditPrecision(int32(cfg.Reconcile.AuditPrecision)),
	)
	parser := csvimport.NewSalesParser(
		csvimport.WithColumns(cfg.Columns.Sales.ProductLabel, cfg.Columns.Sales.Quantity),
	)

	reader := cache.NewCachingReader(store, backend.Cache, cfg.Cache.TTL)
	app.Service = appreconcile.NewReconciliationService(reader, store, parser, engine, serviceConfig(cfg),
		appreconcile.WithCacheInvalidator(reader),
		appreconcile.WithRunLocker(backend.Locker),
		appreconcile.WithRunRecorder(runMetrics),
	)

	log.Info("Reconciliation service ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("cache", backend.Driver),
		zap.String("stock_table", cfg.Tables.Stock),
		zap.String("mapping_table", cfg.Tables.Mapping),
	)
	return app, nil
}

// openStore creates the table store selected by store.driver
func (a *App) openStore(ctx context.Context) (appreconcile.TableStore, error) {
	cfg := a.Config
	switch cfg.Store.Driver {
	case "sheets":
		store, err := sheets.NewStore(ctx, sheets.Config{
			SpreadsheetID:   cfg.Store.Sheets.SpreadsheetID,
			CredentialsFile: cfg.Store.Sheets.CredentialsFile,
			Endpoint:        cfg.Store.Sheets.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "xlsx":
		return workbook.NewStore(cfg.Store.Workbook.Path), nil

	case "database":
		db, err := persistence.NewDatabase(&cfg.Store.Database, a.Logger, logger.GormLevel(cfg.Log.Level))
		if err != nil {
			return nil, err
		}
		a.addCloser("database", func(context.Context) error { return db.Close() })
		a.Checks["database"] = db.Ping

		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			DBName:     cfg.Store.Database.DBName,
			LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		}); err != nil {
			return nil, err
		}

		store := persistence.NewGormTableStore(db.DB)
		if err := store.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate table store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func serviceConfig(cfg *config.Config) appreconcile.ServiceConfig {
	sc := cfg.Columns.Stock
	return appreconcile.ServiceConfig{
		StockTable:   cfg.Tables.Stock,
		MappingTable: cfg.Tables.Mapping,
		StockColumns: appreconcile.StockColumns{
			AdminCode:       sc.AdminCode,
			Description:     sc.Description,
			UnitAdmin:       sc.UnitAdmin,
			UnitBranch:      sc.UnitBranch,
			AverageWeight:   sc.AverageWeight,
			CurrentQuantity: sc.CurrentQuantity,
		},
		MappingColumns: appreconcile.MappingColumns{
			SaleLabel: cfg.Columns.Mapping.SaleLabel,
			AdminCode: cfg.Columns.Mapping.AdminCode,
		},
	}
}

func (a *App) addCloser(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Close releases resources in reverse order of creation
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
