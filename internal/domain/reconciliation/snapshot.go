package reconciliation

import (
	"github.com/shopspring/decimal"
	"github.com/stockrecon/backend/internal/domain/tabular"
)

// BuildSnapshot returns a fresh copy of the ledger records, in ledger order,
// with the given quantities applied. Every other field is left as read.
func BuildSnapshot(ledger *StockLedger, newQuantities map[int64]decimal.Decimal) []StockRecord {
	records := ledger.Records()
	for i := range records {
		if q, ok := newQuantities[records[i].AdminCode]; ok {
			records[i].CurrentQuantity = decimal.NewNullDecimal(q)
		}
	}
	return records
}

// SnapshotTable renders records back onto the table they were read from.
// Columns, row order and every cell the engine does not own are copied from
// original; a quantity cell is rewritten only when its value changed.
func SnapshotTable(original *tabular.Table, records []StockRecord, quantityColumn string) (*tabular.Table, error) {
	if err := original.RequireColumns(quantityColumn); err != nil {
		return nil, err
	}
	col, _ := original.ColumnIndex(quantityColumn)

	out := original.Clone()
	for _, r := range records {
		if r.RowIndex < 0 || r.RowIndex >= len(out.Rows) || !r.CurrentQuantity.Valid {
			continue
		}
		row := out.Rows[r.RowIndex]
		if col >= len(row) {
			continue
		}
		current := tabular.ParseDecimal(row[col])
		if current.Valid && current.Decimal.Equal(r.CurrentQuantity.Decimal) {
			continue
		}
		row[col] = tabular.FormatDecimal(r.CurrentQuantity.Decimal)
	}
	return out, nil
}
