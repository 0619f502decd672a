// Package reconciliation deducts a day's point-of-sale sales from the
// administrative stock ledger. It is a pure in-memory pipeline: sale labels are
// mapped to admin codes, aggregated per code, converted into the ledger unit and
// subtracted from the current quantity. Nothing here performs I/O.
package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stockrecon/backend/internal/domain/shared"
)

// StockRecord is one row of the administrative inventory ledger.
type StockRecord struct {
	AdminCode       int64               `json:"admin_code"`
	Description     string              `json:"description"`
	UnitAdmin       string              `json:"unit_admin"`
	UnitBranch      string              `json:"unit_branch"`
	AverageWeight   decimal.NullDecimal `json:"average_weight"`   // Only needed when the units differ
	CurrentQuantity decimal.NullDecimal `json:"current_quantity"` // May be negative; invalid when the ledger cell is not a number
	RowIndex        int                 `json:"row_index"`        // Position of the source row in the ledger table
}

// ProductMapping translates a point-of-sale label into an admin code.
type ProductMapping struct {
	SaleLabel string `json:"sale_label"`
	AdminCode int64  `json:"admin_code"`
}

// SaleLine is one row of the daily sales extract.
type SaleLine struct {
	ProductLabel string          `json:"product_label"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	LineNumber   int             `json:"line_number"`
}

// ResolvedSale is a sale line whose label has been mapped.
type ResolvedSale struct {
	AdminCode    int64
	QuantitySold decimal.Decimal
}

// AggregatedSale is the total sold for one admin code.
type AggregatedSale struct {
	AdminCode int64           `json:"admin_code"`
	TotalSold decimal.Decimal `json:"total_sold"`
}

// StockLedger is an immutable, code-indexed view of the stock table for one run.
type StockLedger struct {
	records []StockRecord
	index   map[int64]int
}

// NewStockLedger indexes records by admin code. Records keep their order.
// A repeated admin code makes the ledger unusable.
func NewStockLedger(records []StockRecord) (*StockLedger, error) {
	l := &StockLedger{
		records: make([]StockRecord, len(records)),
		index:   make(map[int64]int, len(records)),
	}
	copy(l.records, records)

	for i, r := range l.records {
		if prev, exists := l.index[r.AdminCode]; exists {
			return nil, shared.NewDomainError(shared.CodeDuplicateAdminCode,
				fmt.Sprintf("admin code %d appears in ledger rows %d and %d",
					r.AdminCode, l.records[prev].RowIndex+1, r.RowIndex+1))
		}
		l.index[r.AdminCode] = i
	}
	return l, nil
}

// Lookup returns the record for an admin code
func (l *StockLedger) Lookup(code int64) (StockRecord, bool) {
	i, ok := l.index[code]
	if !ok {
		return StockRecord{}, false
	}
	return l.records[i], true
}

// Records returns a copy of the ledger records in their original order
func (l *StockLedger) Records() []StockRecord {
	out := make([]StockRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records
func (l *StockLedger) Len() int {
	return len(l.records)
}
