package workbook

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, sheets map[string][][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestStore_ReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"stock": {
			{"cod_admin", "descripcion", "stock_actual"},
			{100, "Queso X", 50},
			{200, "Jamon", 20.5},
		},
	})
	store := NewStore(path)

	table, err := store.ReadTable(context.Background(), "stock")

	require.NoError(t, err)
	assert.Equal(t, []string{"cod_admin", "descripcion", "stock_actual"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "100", table.Cell(0, "cod_admin"))
	assert.Equal(t, "20.5", table.Cell(1, "stock_actual"))
}

func TestStore_ReadTable_IgnoresNumberFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "stock"))
	require.NoError(t, f.SetSheetRow("stock", "A1", &[]interface{}{"cod_admin", "stock_actual"}))
	require.NoError(t, f.SetSheetRow("stock", "A2", &[]interface{}{100, 1234.5}))
	grouped, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("stock", "B2", "B2", grouped))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	store := NewStore(path)

	table, err := store.ReadTable(context.Background(), "stock")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", table.Cell(0, "stock_actual"))

	require.NoError(t, store.WriteTable(context.Background(), "stock", table))
	back, err := store.ReadTable(context.Background(), "stock")
	require.NoError(t, err)
	assert.Equal(t, table.Grid(), back.Grid())
}

func TestStore_ReadTable_NotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := NewStore(filepath.Join(dir, "missing.xlsx")).ReadTable(context.Background(), "stock")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	path := filepath.Join(dir, "master.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{"stock": {{"cod_admin"}}})
	_, err = NewStore(path).ReadTable(context.Background(), "mapeo_productos")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Contains(t, err.Error(), "mapeo_productos")
}

func TestStore_WriteTable_PreservesOtherSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"stock": {
			{"cod_admin", "stock_actual"},
			{100, 50},
			{200, 20},
			{300, 7},
		},
		"mapeo_productos": {
			{"producto_venta", "cod_admin"},
			{"Queso X", 100},
		},
	})
	store := NewStore(path)
	snapshot, err := tabular.FromGrid("stock", [][]string{
		{"cod_admin", "stock_actual"},
		{"100", "38"},
		{"200", "-1.25"},
	})
	require.NoError(t, err)

	require.NoError(t, store.WriteTable(context.Background(), "stock", snapshot))

	back, err := store.ReadTable(context.Background(), "stock")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Grid(), back.Grid())

	mapping, err := store.ReadTable(context.Background(), "mapeo_productos")
	require.NoError(t, err)
	assert.Equal(t, "Queso X", mapping.Cell(0, "producto_venta"))

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".stockrecon-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files are cleaned up")
}

func TestStore_WriteTable_CreatesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.xlsx")
	store := NewStore(path)
	table, err := tabular.FromGrid("stock", [][]string{{"cod_admin", "stock_actual"}, {"1", "2"}})
	require.NoError(t, err)

	require.NoError(t, store.WriteTable(context.Background(), "stock", table))

	back, err := store.ReadTable(context.Background(), "stock")
	require.NoError(t, err)
	assert.Equal(t, table.Grid(), back.Grid())
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, float64(38), cellValue("38"))
	assert.Equal(t, -1.25, cellValue("-1.25"))
	assert.Equal(t, "100.0", cellValue("100.0"))
	assert.Equal(t, "Queso X", cellValue("Queso X"))
	assert.Equal(t, "", cellValue(""))
}
