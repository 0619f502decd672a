package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockrecon/backend/internal/domain/reconciliation"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stockrecon/backend/internal/infrastructure/logger"
	"github.com/stockrecon/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Default master data table names
const (
	DefaultStockTable   = "stock"
	DefaultMappingTable = "mapeo_productos"
)

// ServiceConfig holds table and column names
type ServiceConfig struct {
	StockTable     string
	MappingTable   string
	StockColumns   StockColumns
	MappingColumns MappingColumns
}

// DefaultServiceConfig returns the layout of the store operators' spreadsheet
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		StockTable:     DefaultStockTable,
		MappingTable:   DefaultMappingTable,
		StockColumns:   DefaultStockColumns(),
		MappingColumns: DefaultMappingColumns(),
	}
}

// ReconciliationService runs reconciliations against the master data store
type ReconciliationService struct {
	reader      TableReader
	writer      TableWriter
	parser      SalesParser
	engine      *reconciliation.Engine
	cfg         ServiceConfig
	invalidator CacheInvalidator
	locker      RunLocker
	recorder    RunRecorder
	now         func() time.Time
}

// ServiceOption configures a ReconciliationService
type ServiceOption func(*ReconciliationService)

// WithCacheInvalidator drops cached tables after a write
func WithCacheInvalidator(inv CacheInvalidator) ServiceOption {
	return func(s *ReconciliationService) {
		s.invalidator = inv
	}
}

// WithRunLocker serialises writing runs
func WithRunLocker(l RunLocker) ServiceOption {
	return func(s *ReconciliationService) {
		s.locker = l
	}
}

// WithRunRecorder reports run outcomes, typically to metrics
func WithRunRecorder(r RunRecorder) ServiceOption {
	return func(s *ReconciliationService) {
		s.recorder = r
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ReconciliationService) {
		s.now = now
	}
}

// NewReconciliationService creates the service. reader and writer are
// usually the same store, with reader wrapped in a cache.
func NewReconciliationService(
	reader TableReader,
	writer TableWriter,
	parser SalesParser,
	engine *reconciliation.Engine,
	cfg ServiceConfig,
	opts ...ServiceOption,
) *ReconciliationService {
	if engine == nil {
		engine = reconciliation.NewEngine(nil)
	}
	s := &ReconciliationService{
		reader: reader,
		writer: writer,
		parser: parser,
		engine: engine,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// masterData is the immutable input of one run
type masterData struct {
	stock    *tabular.Table
	ledger   *reconciliation.StockLedger
	mappings []reconciliation.ProductMapping
}

// Run reconciles one sales extract. The report is returned even when the
// run fails so callers can show what happened.
func (s *ReconciliationService) Run(ctx context.Context, cmd RunCommand) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.New(),
		Status:    RunFailed,
		DryRun:    cmd.DryRun,
		StartedAt: s.now().UTC(),
	}
	ctx = logger.WithRunID(ctx, report.RunID.String())
	ctx, span := telemetry.StartSpan(ctx, "reconciliation.run",
		attribute.String("run.id", report.RunID.String()),
		attribute.Bool("run.dry_run", cmd.DryRun),
	)
	defer span.End()

	log := logger.L(ctx)
	log.Info("Reconciliation run started", zap.Bool("dry_run", cmd.DryRun), zap.Int("sales_bytes", len(cmd.SalesCSV)))

	err := s.run(ctx, cmd, report)

	report.FinishedAt = s.now().UTC()
	s.record(ctx, report)
	telemetry.RecordError(span, err)
	span.SetAttributes(
		attribute.String("run.status", string(report.Status)),
		attribute.Int("run.updated", report.Summary.Updated),
		attribute.Int("run.errors", report.Summary.Errors),
	)

	if err != nil {
		log.Warn("Reconciliation run did not complete",
			zap.String("status", string(report.Status)),
			zap.Error(err))
		return report, err
	}
	log.Info("Reconciliation run completed",
		zap.Int("updated", report.Summary.Updated),
		zap.Int("errors", report.Summary.Errors),
		zap.Int("negative_stock", report.Summary.NegativeStock),
		zap.Bool("written", report.Written),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

func (s *ReconciliationService) run(ctx context.Context, cmd RunCommand, report *RunReport) error {
	log := logger.L(ctx)

	if !cmd.DryRun && s.locker != nil {
		release, err := s.locker.Acquire(ctx, s.cfg.StockTable)
		if err != nil {
			return err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release run lock", zap.Error(err))
			}
		}()
	}

	data, err := s.loadMasterData(ctx)
	if err != nil {
		return err
	}

	sales, err := s.parser.Parse(ctx, cmd.SalesCSV)
	if err != nil {
		return err
	}

	result, err := s.engine.Reconcile(reconciliation.Input{
		Ledger:   data.ledger,
		Mappings: data.mappings,
		Sales:    sales,
	})
	if err != nil {
		report.Status = RunRejected
		var unmapped *reconciliation.UnmappedProductsError
		if errors.As(err, &unmapped) {
			report.UnmappedLabels = unmapped.Labels
			log.Warn("Sales batch rejected: unmapped products", zap.Strings("labels", unmapped.Labels))
		}
		return err
	}

	report.Audit = result.Audit
	report.Summary = result.Summary
	for _, entry := range result.Audit {
		if entry.Status == reconciliation.AuditError {
			log.Warn("Item not reconciled",
				zap.Int64("admin_code", entry.AdminCode),
				zap.String("reason", entry.Reason),
				zap.String("message", entry.Message))
		}
	}

	if cmd.DryRun {
		report.Status = RunCompleted
		return nil
	}

	snapshot, err := reconciliation.SnapshotTable(data.stock, result.Records, s.cfg.StockColumns.CurrentQuantity)
	if err != nil {
		return err
	}
	if err := s.writer.WriteTable(ctx, s.cfg.StockTable, snapshot); err != nil {
		return collaboratorError(fmt.Sprintf("failed to write table '%s'", s.cfg.StockTable), err)
	}
	report.Written = true
	report.Status = RunCompleted
	log.Info("Stock snapshot written", zap.String("table", s.cfg.StockTable), zap.Int("rows", snapshot.Len()))

	s.invalidate(ctx, s.cfg.StockTable)
	return nil
}

// CheckMappings lists the labels of a sales extract that have no mapping or
// map to more than one admin code
func (s *ReconciliationService) CheckMappings(ctx context.Context, salesCSV []byte) (*MappingCheck, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconciliation.check_mappings")
	defer span.End()

	table, err := s.readTable(ctx, s.cfg.MappingTable)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	mappings, err := DecodeMappings(table, s.cfg.MappingColumns)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	mapper := reconciliation.NewProductMapper(mappings)

	sales, err := s.parser.Parse(ctx, salesCSV)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	labels := make(map[string]struct{}, len(sales))
	for _, line := range sales {
		labels[line.ProductLabel] = struct{}{}
	}
	unmapped := mapper.Unmapped(sales)
	if unmapped == nil {
		unmapped = []string{}
	}
	ambiguous := mapper.Ambiguous(sales)
	if ambiguous == nil {
		ambiguous = []string{}
	}
	return &MappingCheck{
		SaleLines: len(sales),
		Labels:    len(labels),
		Unmapped:  unmapped,
		Ambiguous: ambiguous,
	}, nil
}

// StockPreview returns the first limit ledger records. A limit of zero or
// less returns them all.
func (s *ReconciliationService) StockPreview(ctx context.Context, limit int) (*StockPreview, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconciliation.stock_preview", attribute.Int("limit", limit))
	defer span.End()

	table, err := s.readTable(ctx, s.cfg.StockTable)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	ledger, err := DecodeLedger(table, s.cfg.StockColumns)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	records := ledger.Records()
	preview := &StockPreview{Total: len(records), Records: records}
	if limit > 0 && limit < len(records) {
		preview.Records = records[:limit]
	}
	return preview, nil
}

// RefreshMasterData drops the cached stock and mapping tables
func (s *ReconciliationService) RefreshMasterData(ctx context.Context) error {
	if s.invalidator == nil {
		return nil
	}
	if err := s.invalidator.Invalidate(ctx, s.cfg.StockTable, s.cfg.MappingTable); err != nil {
		return collaboratorError("failed to invalidate master data cache", err)
	}
	logger.L(ctx).Info("Master data cache invalidated",
		zap.Strings("tables", []string{s.cfg.StockTable, s.cfg.MappingTable}))
	return nil
}

func (s *ReconciliationService) loadMasterData(ctx context.Context) (*masterData, error) {
	stock, err := s.readTable(ctx, s.cfg.StockTable)
	if err != nil {
		return nil, err
	}
	mapping, err := s.readTable(ctx, s.cfg.MappingTable)
	if err != nil {
		return nil, err
	}

	ledger, err := DecodeLedger(stock, s.cfg.StockColumns)
	if err != nil {
		return nil, err
	}
	mappings, err := DecodeMappings(mapping, s.cfg.MappingColumns)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Debug("Master data loaded",
		zap.Int("stock_records", ledger.Len()),
		zap.Int("mappings", len(mappings)))
	return &masterData{stock: stock, ledger: ledger, mappings: mappings}, nil
}

func (s *ReconciliationService) readTable(ctx context.Context, name string) (*tabular.Table, error) {
	table, err := s.reader.ReadTable(ctx, name)
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) && de.Code == shared.CodeMalformedTable {
			return nil, err
		}
		return nil, collaboratorError(fmt.Sprintf("failed to read table '%s'", name), err)
	}
	return table, nil
}

func (s *ReconciliationService) invalidate(ctx context.Context, names ...string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, names...); err != nil {
		logger.L(ctx).Warn("Failed to invalidate cached tables", zap.Strings("tables", names), zap.Error(err))
	}
}

func (s *ReconciliationService) record(ctx context.Context, report *RunReport) {
	if s.recorder == nil {
		return
	}
	outcome := telemetry.RunOutcome{
		Status:        string(report.Status),
		DryRun:        report.DryRun,
		Updated:       report.Summary.Updated,
		NegativeStock: report.Summary.NegativeStock,
		Duration:      report.FinishedAt.Sub(report.StartedAt),
	}
	if report.Summary.Errors > 0 {
		outcome.Errors = make(map[string]int)
		for _, entry := range report.Audit {
			if entry.Status == reconciliation.AuditError {
				outcome.Errors[entry.Reason]++
			}
		}
	}
	s.recorder.RecordRun(ctx, outcome)
}

func collaboratorError(message string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Code == shared.CodeCollaboratorFailure {
		return err
	}
	return shared.WrapDomainError(shared.CodeCollaboratorFailure, message, err)
}
