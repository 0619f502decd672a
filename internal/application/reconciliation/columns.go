package reconciliation

import (
	"fmt"

	"github.com/stockrecon/backend/internal/domain/reconciliation"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
)

// StockColumns names the stock table headers
type StockColumns struct {
	AdminCode       string
	Description     string
	UnitAdmin       string
	UnitBranch      string
	AverageWeight   string
	CurrentQuantity string
}

// DefaultStockColumns returns the headers used by the store operators
func DefaultStockColumns() StockColumns {
	return StockColumns{
		AdminCode:       "cod_admin",
		Description:     "descripcion",
		UnitAdmin:       "um_adm",
		UnitBranch:      "um_suc",
		AverageWeight:   "peso_prom",
		CurrentQuantity: "stock_actual",
	}
}

func (c StockColumns) required() []string {
	return []string{c.AdminCode, c.Description, c.UnitAdmin, c.UnitBranch, c.AverageWeight, c.CurrentQuantity}
}

// MappingColumns names the product mapping table headers
type MappingColumns struct {
	SaleLabel string
	AdminCode string
}

// DefaultMappingColumns returns the headers used by the store operators
func DefaultMappingColumns() MappingColumns {
	return MappingColumns{
		SaleLabel: "producto_venta",
		AdminCode: "cod_admin",
	}
}

// DecodeLedger builds a ledger from the stock table. Blank rows and rows
// without an admin code are skipped; RowIndex keeps pointing at the row in
// table so the snapshot can be rendered over it.
func DecodeLedger(table *tabular.Table, cols StockColumns) (*reconciliation.StockLedger, error) {
	if err := table.RequireColumns(cols.required()...); err != nil {
		return nil, err
	}

	records := make([]reconciliation.StockRecord, 0, table.Len())
	for i, row := range table.Rows {
		if row.IsBlank() {
			continue
		}
		raw := table.Cell(i, cols.AdminCode)
		if raw == "" {
			continue
		}
		code, ok := tabular.ParseCode(raw)
		if !ok {
			return nil, shared.NewDomainError(shared.CodeMalformedTable,
				fmt.Sprintf("table '%s' row %d: admin code %q is not an integer", table.Name, i+2, raw))
		}
		records = append(records, reconciliation.StockRecord{
			AdminCode:       code,
			Description:     table.Cell(i, cols.Description),
			UnitAdmin:       table.Cell(i, cols.UnitAdmin),
			UnitBranch:      table.Cell(i, cols.UnitBranch),
			AverageWeight:   tabular.ParseDecimal(table.Cell(i, cols.AverageWeight)),
			CurrentQuantity: tabular.ParseDecimal(table.Cell(i, cols.CurrentQuantity)),
			RowIndex:        i,
		})
	}

	ledger, err := reconciliation.NewStockLedger(records)
	if err != nil {
		return nil, fmt.Errorf("table '%s': %w", table.Name, err)
	}
	return ledger, nil
}

// DecodeMappings reads the product mapping table. Rows missing either the
// label or the code are skipped, leaving that label unmapped.
func DecodeMappings(table *tabular.Table, cols MappingColumns) ([]reconciliation.ProductMapping, error) {
	if err := table.RequireColumns(cols.SaleLabel, cols.AdminCode); err != nil {
		return nil, err
	}

	mappings := make([]reconciliation.ProductMapping, 0, table.Len())
	for i := range table.Rows {
		label := table.Cell(i, cols.SaleLabel)
		raw := table.Cell(i, cols.AdminCode)
		if label == "" || raw == "" {
			continue
		}
		code, ok := tabular.ParseCode(raw)
		if !ok {
			return nil, shared.NewDomainError(shared.CodeMalformedTable,
				fmt.Sprintf("table '%s' row %d: admin code %q for '%s' is not an integer", table.Name, i+2, raw, label))
		}
		mappings = append(mappings, reconciliation.ProductMapping{SaleLabel: label, AdminCode: code})
	}
	return mappings, nil
}
