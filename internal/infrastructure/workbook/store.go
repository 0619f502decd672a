// Package workbook keeps the master data tables in a local .xlsx file, one
// worksheet per table. It serves single-shop setups without a Google account.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stockrecon/backend/internal/infrastructure/logger"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Store implements TableStore on a workbook file
type Store struct {
	path string
	mu   sync.Mutex
}

var _ appreconcile.TableStore = (*Store)(nil)

// NewStore creates a store for path. The file is created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// ReadTable reads the worksheet called name
func (s *Store) ReadTable(ctx context.Context, name string) (*tabular.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, shared.WrapDomainError(shared.CodeNotFound, fmt.Sprintf("workbook %s not found", s.path), err)
		}
		return nil, shared.WrapDomainError(shared.CodeCollaboratorFailure, fmt.Sprintf("failed to open workbook %s", s.path), err)
	}
	defer func() { _ = f.Close() }()

	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("worksheet '%s' not found in %s", name, s.path))
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeCollaboratorFailure, fmt.Sprintf("failed to read worksheet '%s'", name), err)
	}

	table, err := tabular.FromGrid(name, rows)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Debug("Worksheet read", zap.String("path", s.path), zap.String("table", name), zap.Int("rows", table.Len()))
	return table, nil
}

// WriteTable replaces the contents of the worksheet and leaves the other
// worksheets untouched. The file is replaced by rename so readers never see
// a partial workbook.
func (s *Store) WriteTable(ctx context.Context, name string, table *tabular.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.openOrCreate(name)
	if err != nil {
		return shared.WrapDomainError(shared.CodeCollaboratorFailure, fmt.Sprintf("failed to open workbook %s", s.path), err)
	}
	defer func() { _ = f.Close() }()

	if err := fillSheet(f, name, table.Grid()); err != nil {
		return shared.WrapDomainError(shared.CodeCollaboratorFailure, fmt.Sprintf("failed to fill worksheet '%s'", name), err)
	}
	if err := s.replaceFile(f); err != nil {
		return shared.WrapDomainError(shared.CodeCollaboratorFailure, fmt.Sprintf("failed to save workbook %s", s.path), err)
	}

	logger.L(ctx).Info("Worksheet written", zap.String("path", s.path), zap.String("table", name), zap.Int("rows", table.Len()))
	return nil
}

func (s *Store) openOrCreate(sheet string) (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			_ = f.Close()
			return nil, err
		}
		return f, nil
	}
	if err != nil {
		return nil, err
	}

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func fillSheet(f *excelize.File, sheet string, grid [][]string) error {
	existing, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	for r := len(existing); r > len(grid); r-- {
		if err := f.RemoveRow(sheet, r); err != nil {
			return err
		}
	}

	for i, row := range grid {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// cellValue writes numbers as numbers when that round-trips to the same text
func cellValue(v string) interface{} {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || strconv.FormatFloat(n, 'f', -1, 64) != v {
		return v
	}
	return n
}

func (s *Store) replaceFile(f *excelize.File) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".stockrecon-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
