package csvimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockrecon/backend/internal/domain/reconciliation"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stockrecon/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Default sales extract columns
const (
	DefaultProductColumn  = "producto"
	DefaultQuantityColumn = "cantidad"
)

const defaultMaxRowErrors = 50

// SalesParser turns a sales extract into sale lines
type SalesParser struct {
	productColumn  string
	quantityColumn string
	maxErrors      int
}

// SalesParserOption configures a SalesParser
type SalesParserOption func(*SalesParser)

// WithColumns overrides the product and quantity column names
func WithColumns(product, quantity string) SalesParserOption {
	return func(p *SalesParser) {
		if product != "" {
			p.productColumn = product
		}
		if quantity != "" {
			p.quantityColumn = quantity
		}
	}
}

// WithMaxRowErrors caps how many row errors are reported
func WithMaxRowErrors(n int) SalesParserOption {
	return func(p *SalesParser) {
		if n > 0 {
			p.maxErrors = n
		}
	}
}

// NewSalesParser creates a parser for the default column layout
func NewSalesParser(opts ...SalesParserOption) *SalesParser {
	p := &SalesParser{
		productColumn:  DefaultProductColumn,
		quantityColumn: DefaultQuantityColumn,
		maxErrors:      defaultMaxRowErrors,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads every sale line in data. A file with any bad row is rejected
// as a whole and the error lists the offending rows.
func (p *SalesParser) Parse(ctx context.Context, data []byte) ([]reconciliation.SaleLine, error) {
	parser, err := NewCSVParser(data)
	if err != nil {
		return nil, p.fileError(err.Error(), err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, p.fileError(err.Error(), err)
	}
	if missing := parser.MissingHeaders(p.productColumn, p.quantityColumn); len(missing) > 0 {
		return nil, p.fileError(fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, p.fileError("malformed CSV", err)
	}

	validator := NewFieldValidator([]FieldRule{
		Field(p.productColumn).Required().Build(),
		Field(p.quantityColumn).Required().Decimal().MinValue(decimal.Zero).Build(),
	}, p.maxErrors)

	lines := make([]reconciliation.SaleLine, 0, len(rows))
	for _, row := range rows {
		if !validator.ValidateRow(row) {
			continue
		}
		lines = append(lines, reconciliation.SaleLine{
			ProductLabel: row.Get(p.productColumn),
			QuantitySold: tabular.ParseDecimal(row.Get(p.quantityColumn)).Decimal,
			LineNumber:   row.LineNumber,
		})
	}

	if errs := validator.Errors(); errs.HasErrors() {
		return nil, &SalesFileError{
			Reason: fmt.Sprintf("%d invalid rows", errs.TotalCount()),
			Rows:   errs.Errors(),
			Total:  errs.TotalCount(),
		}
	}

	logger.L(ctx).Debug("Sales extract parsed",
		zap.Int("lines", len(lines)),
		zap.String("encoding", parser.Encoding()),
		zap.String("delimiter", string(parser.Delimiter())),
	)
	return lines, nil
}

func (p *SalesParser) fileError(reason string, cause error) error {
	e := &SalesFileError{Reason: reason, cause: cause}
	if errors.Is(cause, ErrEmptyFile) {
		e.Reason = "file is empty"
	}
	return e
}
