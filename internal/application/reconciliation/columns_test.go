package reconciliation

import (
	"testing"

	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockHeader = []string{"cod_admin", "descripcion", "um_adm", "um_suc", "peso_prom", "stock_actual"}

func TestDecodeLedger(t *testing.T) {
	table, err := tabular.FromGrid("stock", [][]string{
		stockHeader,
		{"100.0", "Queso X", "Unidad", "Unidad", "", "50"},
		{"", "", "", "", "", ""},
		{"", "Sin codigo", "Unidad", "Unidad", "", "3"},
		{"200", "Jamon", "Unidad", "Kilos", "0,4", "n/a"},
	})
	require.NoError(t, err)

	ledger, err := DecodeLedger(table, DefaultStockColumns())

	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Len())

	queso, ok := ledger.Lookup(100)
	require.True(t, ok)
	assert.Equal(t, 0, queso.RowIndex)
	assert.Equal(t, "50", queso.CurrentQuantity.Decimal.String())
	assert.False(t, queso.AverageWeight.Valid)

	jamon, ok := ledger.Lookup(200)
	require.True(t, ok)
	assert.Equal(t, 3, jamon.RowIndex)
	assert.Equal(t, "0.4", jamon.AverageWeight.Decimal.String())
	assert.False(t, jamon.CurrentQuantity.Valid)
}

func TestDecodeLedger_Errors(t *testing.T) {
	tests := []struct {
		name string
		grid [][]string
		code string
	}{
		{
			name: "missing column",
			grid: [][]string{{"cod_admin", "descripcion"}, {"1", "x"}},
			code: shared.CodeMalformedTable,
		},
		{
			name: "non integer code",
			grid: [][]string{stockHeader, {"12.5", "x", "Unidad", "Unidad", "", "1"}},
			code: shared.CodeMalformedTable,
		},
		{
			name: "duplicate code",
			grid: [][]string{stockHeader, {"1", "x", "Unidad", "Unidad", "", "1"}, {"1", "y", "Unidad", "Unidad", "", "2"}},
			code: shared.CodeDuplicateAdminCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := tabular.FromGrid("stock", tt.grid)
			require.NoError(t, err)

			_, err = DecodeLedger(table, DefaultStockColumns())

			require.Error(t, err)
			assert.ErrorIs(t, err, shared.NewDomainError(tt.code, ""))
		})
	}
}

func TestDecodeMappings(t *testing.T) {
	table, err := tabular.FromGrid("mapeo_productos", [][]string{
		{"producto_venta", "cod_admin"},
		{"Queso X", "100"},
		{"", "200"},
		{"Pan", ""},
		{"Jamon", "200.0"},
	})
	require.NoError(t, err)

	mappings, err := DecodeMappings(table, DefaultMappingColumns())

	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "Queso X", mappings[0].SaleLabel)
	assert.Equal(t, int64(200), mappings[1].AdminCode)

	bad, err := tabular.FromGrid("mapeo_productos", [][]string{{"producto_venta", "cod_admin"}, {"Pan", "abc"}})
	require.NoError(t, err)
	_, err = DecodeMappings(bad, DefaultMappingColumns())
	assert.ErrorIs(t, err, shared.ErrMalformedTable)
	assert.Contains(t, err.Error(), "Pan")

	// would wrap to 100 if truncated to int64
	overflow, err := tabular.FromGrid("mapeo_productos", [][]string{{"producto_venta", "cod_admin"}, {"Queso X", "18446744073709551716"}})
	require.NoError(t, err)
	_, err = DecodeMappings(overflow, DefaultMappingColumns())
	assert.ErrorIs(t, err, shared.ErrMalformedTable)
	assert.Contains(t, err.Error(), "18446744073709551716")
}
