package reconciliation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stockrecon/backend/internal/domain/shared"
)

// AuditStatus is the outcome of one aggregated sale
type AuditStatus string

const (
	AuditUpdated AuditStatus = "updated"
	AuditError   AuditStatus = "error"
)

// DefaultAuditPrecision is the number of decimals shown in audit quantities
const DefaultAuditPrecision int32 = 2

// AuditEntry records what happened to one admin code during a run.
// Quantities are rounded for display; the snapshot keeps full precision.
type AuditEntry struct {
	AdminCode          int64               `json:"admin_code"`
	Description        string              `json:"description,omitempty"`
	PreviousQuantity   decimal.NullDecimal `json:"previous_quantity"`
	ConvertedDeduction decimal.NullDecimal `json:"converted_deduction"`
	NewQuantity        decimal.NullDecimal `json:"new_quantity"`
	Status             AuditStatus         `json:"status"`
	Reason             string              `json:"reason,omitempty"`
	Message            string              `json:"message,omitempty"`
}

// Summary counts the outcomes of a run
type Summary struct {
	SaleLines       int `json:"sale_lines"`
	AggregatedCodes int `json:"aggregated_codes"`
	Updated         int `json:"updated"`
	Errors          int `json:"errors"`
	NegativeStock   int `json:"negative_stock"`
}

// Result is the output of a successful run
type Result struct {
	Records []StockRecord `json:"records"`
	Audit   []AuditEntry  `json:"audit"`
	Summary Summary       `json:"summary"`
}

// Input is the immutable snapshot one run works on
type Input struct {
	Ledger   *StockLedger
	Mappings []ProductMapping
	Sales    []SaleLine
}

// Engine runs the reconciliation pipeline
type Engine struct {
	converter *UnitConverter
	precision int32
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithAuditPrecision sets the decimals used for audit quantities
func WithAuditPrecision(places int32) EngineOption {
	return func(e *Engine) {
		if places >= 0 {
			e.precision = places
		}
	}
}

// NewEngine creates an engine. A nil converter uses the default unit catalog.
func NewEngine(converter *UnitConverter, opts ...EngineOption) *Engine {
	if converter == nil {
		converter = NewUnitConverter(nil)
	}
	e := &Engine{
		converter: converter,
		precision: DefaultAuditPrecision,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile deducts the sales from the ledger.
//
// An unmapped or ambiguously mapped sale label rejects the whole batch and no
// result is returned. Unknown codes and failed conversions only affect their
// own item: they are logged as errors and the record keeps its quantity.
func (e *Engine) Reconcile(in Input) (*Result, error) {
	if in.Ledger == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "stock ledger is required")
	}

	resolved, err := NewProductMapper(in.Mappings).ResolveAll(in.Sales)
	if err != nil {
		return nil, err
	}
	aggregated := Aggregate(resolved)

	result := &Result{
		Audit: make([]AuditEntry, 0, len(aggregated)),
		Summary: Summary{
			SaleLines:       len(in.Sales),
			AggregatedCodes: len(aggregated),
		},
	}
	newQuantities := make(map[int64]decimal.Decimal, len(aggregated))

	for _, sale := range aggregated {
		entry := e.apply(in.Ledger, sale, newQuantities)
		switch entry.Status {
		case AuditUpdated:
			result.Summary.Updated++
			if newQuantities[sale.AdminCode].IsNegative() {
				result.Summary.NegativeStock++
			}
		case AuditError:
			result.Summary.Errors++
		}
		result.Audit = append(result.Audit, entry)
	}

	result.Records = BuildSnapshot(in.Ledger, newQuantities)
	return result, nil
}

func (e *Engine) apply(ledger *StockLedger, sale AggregatedSale, newQuantities map[int64]decimal.Decimal) AuditEntry {
	record, ok := ledger.Lookup(sale.AdminCode)
	if !ok {
		return AuditEntry{
			AdminCode: sale.AdminCode,
			Status:    AuditError,
			Reason:    shared.CodeUnknownAdminCode,
			Message:   fmt.Sprintf("admin code %d does not exist in the stock ledger", sale.AdminCode),
		}
	}

	if !record.CurrentQuantity.Valid {
		return AuditEntry{
			AdminCode:   record.AdminCode,
			Description: record.Description,
			Status:      AuditError,
			Reason:      shared.CodeInvalidStockQuantity,
			Message: fmt.Sprintf("'%s' (code %d) has no numeric current stock",
				record.Description, record.AdminCode),
		}
	}
	previous := record.CurrentQuantity.Decimal

	deduction, err := e.converter.Convert(record.UnitAdmin, record.UnitBranch, sale.TotalSold, record.AverageWeight)
	if err != nil {
		entry := AuditEntry{
			AdminCode:        record.AdminCode,
			Description:      record.Description,
			PreviousQuantity: e.display(previous),
			Status:           AuditError,
			Reason:           shared.CodeUnsupportedConvert,
			Message:          fmt.Sprintf("'%s' (code %d): %v", record.Description, record.AdminCode, err),
		}
		var convErr *ConversionError
		if errors.As(err, &convErr) {
			entry.Reason = convErr.Code()
		}
		return entry
	}

	updated := previous.Sub(deduction)
	newQuantities[record.AdminCode] = updated

	return AuditEntry{
		AdminCode:          record.AdminCode,
		Description:        record.Description,
		PreviousQuantity:   e.display(previous),
		ConvertedDeduction: e.display(deduction),
		NewQuantity:        e.display(updated),
		Status:             AuditUpdated,
	}
}

func (e *Engine) display(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d.Round(e.precision))
}
