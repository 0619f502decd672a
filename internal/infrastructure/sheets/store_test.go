package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const testSpreadsheet = "sheet-123"

// fakeSheets serves the values endpoints of the Sheets API from memory
type fakeSheets struct {
	values     map[string][][]interface{}
	lastInput  string
	lastRender string
	writeCalls int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/v4/spreadsheets/" + testSpreadsheet + "/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	rng := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		f.lastRender = r.URL.Query().Get("valueRenderOption")
		values, ok := f.values[rng]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"Unable to parse range: `+rng+`","status":"INVALID_ARGUMENT"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"range": rng, "majorDimension": "ROWS", "values": values})
	case http.MethodPut:
		f.writeCalls++
		f.lastInput = r.URL.Query().Get("valueInputOption")
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.values[rng] = body.Values
		cells := 0
		for _, row := range body.Values {
			cells += len(row)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"updatedRange": rng, "updatedCells": cells})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, fake http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewStore(context.Background(), Config{SpreadsheetID: testSpreadsheet, Endpoint: srv.URL + "/"},
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return store
}

func TestStore_ReadTable(t *testing.T) {
	fake := &fakeSheets{values: map[string][][]interface{}{
		"'stock'": {
			{"cod_admin", "descripcion", "stock_actual", ""},
			{"100", "Queso X", "50"},
			{101, "Pan", 12.5},
		},
	}}
	store := newTestStore(t, fake)

	table, err := store.ReadTable(context.Background(), "stock")

	require.NoError(t, err)
	assert.Equal(t, []string{"cod_admin", "descripcion", "stock_actual"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "50", table.Cell(0, "stock_actual"))
	assert.Equal(t, "101", table.Cell(1, "cod_admin"))
	assert.Equal(t, "12.5", table.Cell(1, "stock_actual"))
}

func TestStore_ReadTable_Errors(t *testing.T) {
	fake := &fakeSheets{values: map[string][][]interface{}{"'empty'": {}}}
	store := newTestStore(t, fake)

	_, err := store.ReadTable(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Contains(t, err.Error(), "missing")

	_, err = store.ReadTable(context.Background(), "empty")
	assert.ErrorIs(t, err, shared.ErrMalformedTable)
}

func TestStore_ReadTable_ServerError(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := store.ReadTable(context.Background(), "stock")

	assert.ErrorIs(t, err, shared.ErrCollaboratorFailure)
}

func TestStore_WriteTable(t *testing.T) {
	fake := &fakeSheets{values: map[string][][]interface{}{}}
	store := newTestStore(t, fake)
	table, err := tabular.FromGrid("stock", [][]string{
		{"cod_admin", "stock_actual"},
		{"100", "38"},
		{"200", "-1.5"},
	})
	require.NoError(t, err)

	require.NoError(t, store.WriteTable(context.Background(), "stock", table))

	assert.Equal(t, 1, fake.writeCalls)
	assert.Equal(t, "RAW", fake.lastInput)
	assert.Equal(t, 38.0, fake.values["'stock'"][1][1], "quantities are sent as numbers")
	assert.Equal(t, "cod_admin", fake.values["'stock'"][0][0])

	back, err := store.ReadTable(context.Background(), "stock")
	require.NoError(t, err)
	assert.Equal(t, table.Grid(), back.Grid())
}

func TestStore_NumericCellsRoundTrip(t *testing.T) {
	// A sheet formatted "#,##0.00" displays 1234.5 as "1,234.50"; the raw
	// value must be what reaches the ledger and what is written back.
	fake := &fakeSheets{values: map[string][][]interface{}{
		"'stock'": {
			{"cod_admin", "descripcion", "stock_actual"},
			{100, "Queso 1,234", 1234.5},
			{200, "007", 0.125},
		},
	}}
	store := newTestStore(t, fake)

	table, err := store.ReadTable(context.Background(), "stock")
	require.NoError(t, err)

	assert.Equal(t, "UNFORMATTED_VALUE", fake.lastRender)
	assert.Equal(t, "1234.5", table.Cell(0, "stock_actual"))
	assert.True(t, tabular.ParseDecimal(table.Cell(0, "stock_actual")).Decimal.Equal(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.125", table.Cell(1, "stock_actual"))

	require.NoError(t, store.WriteTable(context.Background(), "stock", table))

	written := fake.values["'stock'"]
	assert.Equal(t, 100.0, written[1][0])
	assert.Equal(t, "Queso 1,234", written[1][1])
	assert.Equal(t, 1234.5, written[1][2])
	assert.Equal(t, "007", written[2][1], "text that looks numeric stays text")
	assert.Equal(t, 0.125, written[2][2])
}

func TestCellValue(t *testing.T) {
	tests := map[string]interface{}{
		"":       "",
		"38":     json.Number("38"),
		"-1.5":   json.Number("-1.5"),
		"1234.5": json.Number("1234.5"),
		"1,5":    "1,5",
		"007":    "007",
		"1.50":   "1.50",
		"Queso":  "Queso",
	}
	for in, want := range tests {
		assert.Equal(t, want, cellValue(in), "cell %q", in)
	}
}

func TestNewStore_RequiresSpreadsheet(t *testing.T) {
	_, err := NewStore(context.Background(), Config{}, option.WithoutAuthentication())

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSheetRange(t *testing.T) {
	assert.Equal(t, "'stock'", sheetRange("stock"))
	assert.Equal(t, "'Mario''s'", sheetRange("Mario's"))
}
