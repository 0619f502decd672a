// Package sheets keeps the master data tables in a Google Sheets spreadsheet,
// one worksheet per table with the header in row 1.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stockrecon/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	// Numbers are read as values, not as locale-formatted display text
	valueRenderOption = "UNFORMATTED_VALUE"
	// Cells are stored as sent: numbers stay numbers, labels stay text
	valueInputOption = "RAW"
)

// Config holds the spreadsheet location and credentials
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	Endpoint        string
}

// Store implements TableStore on a spreadsheet
type Store struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
}

var _ appreconcile.TableStore = (*Store)(nil)

// NewStore creates a store. Extra client options are appended after the
// ones derived from cfg.
func NewStore(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "spreadsheet id is required")
	}

	clientOpts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	srv, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &Store{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
	}, nil
}

// sheetRange addresses a whole worksheet
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ReadTable reads every populated cell of the worksheet
func (s *Store) ReadTable(ctx context.Context, name string) (*tabular.Table, error) {
	resp, err := s.values.Get(s.spreadsheetID, sheetRange(name)).
		ValueRenderOption(valueRenderOption).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apiError("read", name, err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			grid[i][j] = cellString(cell)
		}
	}

	table, err := tabular.FromGrid(name, grid)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Debug("Worksheet read", zap.String("table", name), zap.Int("rows", table.Len()))
	return table, nil
}

// WriteTable overwrites the worksheet with table in a single update, so the
// spreadsheet never holds a half-written snapshot
func (s *Store) WriteTable(ctx context.Context, name string, table *tabular.Table) error {
	grid := table.Grid()
	values := make([][]interface{}, len(grid))
	for i, row := range grid {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cellValue(cell)
		}
	}

	resp, err := s.values.Update(s.spreadsheetID, sheetRange(name), &gsheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         values,
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return apiError("write", name, err)
	}

	logger.L(ctx).Info("Worksheet written",
		zap.String("table", name),
		zap.Int64("updated_cells", resp.UpdatedCells))
	return nil
}

func cellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}

// cellValue sends a cell as a JSON number when the text is a plain decimal
// that reads back identically. Anything else, such as "007" or "1,5", is text.
func cellValue(v string) interface{} {
	if v == "" {
		return v
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.String() != v {
		return v
	}
	return json.Number(v)
}

func apiError(op, name string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound ||
		(gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range"))) {
		return shared.WrapDomainError(shared.CodeNotFound, fmt.Sprintf("worksheet '%s' not found", name), err)
	}
	return shared.WrapDomainError(shared.CodeCollaboratorFailure,
		fmt.Sprintf("failed to %s worksheet '%s'", op, name), err)
}
