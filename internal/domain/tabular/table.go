// Package tabular models the column-named rows exchanged with spreadsheet-like
// stores. Cells are kept as text; numeric columns are coerced on demand and a
// value that does not parse is reported as missing instead of failing.
package tabular

import (
	"fmt"
	"strings"

	"github.com/stockrecon/backend/internal/domain/shared"
)

// Row is one data row. Cells line up with Table.Columns.
type Row []string

// IsBlank reports whether every cell of the row is empty after trimming
func (r Row) IsBlank() bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Table is an ordered grid of text cells with a header row
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New creates an empty table with the given header
func New(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		Name:    name,
		Columns: cols,
		Rows:    make([]Row, 0),
	}
}

// FromGrid builds a table from raw cell values where the first row is the header.
// Short rows are padded and header cells are trimmed.
func FromGrid(name string, grid [][]string) (*Table, error) {
	if len(grid) == 0 {
		return nil, shared.NewDomainError(shared.CodeMalformedTable,
			fmt.Sprintf("table '%s' has no header row", name))
	}

	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}
	// Trailing empty header cells come from formatted-but-unused sheet columns
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	if len(header) == 0 {
		return nil, shared.NewDomainError(shared.CodeMalformedTable,
			fmt.Sprintf("table '%s' has an empty header row", name))
	}

	t := New(name, header)
	for _, raw := range grid[1:] {
		t.Rows = append(t.Rows, fitRow(raw, len(header)))
	}
	return t, nil
}

// fitRow pads or truncates a raw row to width cells
func fitRow(raw []string, width int) Row {
	row := make(Row, width)
	copy(row, raw)
	return row
}

// ColumnIndex returns the position of a column by header name
func (t *Table) ColumnIndex(column string) (int, bool) {
	for i, c := range t.Columns {
		if c == column {
			return i, true
		}
	}
	return -1, false
}

// RequireColumns fails with MALFORMED_TABLE naming every missing column
func (t *Table) RequireColumns(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.ColumnIndex(c); !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return shared.NewDomainError(shared.CodeMalformedTable,
			fmt.Sprintf("table '%s' is missing column(s): %s", t.Name, strings.Join(missing, ", ")))
	}
	return nil
}

// Cell returns the trimmed value at (row, column), or "" when either is out of range
func (t *Table) Cell(row int, column string) string {
	idx, ok := t.ColumnIndex(column)
	if !ok || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][idx])
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	c := New(t.Name, t.Columns)
	c.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		c.Rows[i] = fitRow(r, len(r))
	}
	return c
}

// WithoutBlankRows returns a copy of the table with fully blank rows removed
func (t *Table) WithoutBlankRows() *Table {
	c := New(t.Name, t.Columns)
	for _, r := range t.Rows {
		if r.IsBlank() {
			continue
		}
		c.Rows = append(c.Rows, fitRow(r, len(t.Columns)))
	}
	return c
}

// Grid returns header plus rows as a plain cell grid
func (t *Table) Grid() [][]string {
	grid := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	grid = append(grid, header)
	for _, r := range t.Rows {
		grid = append(grid, []string(fitRow(r, len(t.Columns))))
	}
	return grid
}
