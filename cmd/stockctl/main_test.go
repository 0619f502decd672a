package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/domain/reconciliation"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Run(ctx context.Context, cmd appreconcile.RunCommand) (*appreconcile.RunReport, error) {
	args := m.Called(ctx, cmd)
	report, _ := args.Get(0).(*appreconcile.RunReport)
	return report, args.Error(1)
}

func (m *mockService) CheckMappings(ctx context.Context, salesCSV []byte) (*appreconcile.MappingCheck, error) {
	args := m.Called(ctx, salesCSV)
	check, _ := args.Get(0).(*appreconcile.MappingCheck)
	return check, args.Error(1)
}

func (m *mockService) StockPreview(ctx context.Context, limit int) (*appreconcile.StockPreview, error) {
	args := m.Called(ctx, limit)
	preview, _ := args.Get(0).(*appreconcile.StockPreview)
	return preview, args.Error(1)
}

func (m *mockService) RefreshMasterData(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type result struct {
	status subcommands.ExitStatus
	out    string
	errOut string
	closed bool
}

// execute runs stockctl with args against svc
func execute(t *testing.T, svc service, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	var res result
	e := &env{
		out:    &out,
		errOut: &errOut,
		open: func(context.Context, string) (service, func(), error) {
			return svc, func() { res.closed = true }, nil
		},
	}

	fs := flag.NewFlagSet("stockctl", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "stockctl")
	commander.Output = &errOut
	commander.Error = &errOut
	for _, c := range commands(e) {
		commander.Register(c, "")
	}
	require.NoError(t, fs.Parse(args))

	res.status = commander.Execute(context.Background())
	res.out = out.String()
	res.errOut = errOut.String()
	return res
}

func writeSales(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ventas.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const salesCSV = "producto,cantidad\nQueso X,2\n"

func TestReconcile(t *testing.T) {
	path := writeSales(t, salesCSV)

	t.Run("prints the report", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Run", mock.Anything, appreconcile.RunCommand{SalesCSV: []byte(salesCSV), DryRun: true}).
			Return(&appreconcile.RunReport{Status: appreconcile.RunCompleted, DryRun: true}, nil)

		res := execute(t, svc, "reconcile", "-sales", path, "-dry-run")

		assert.Equal(t, subcommands.ExitSuccess, res.status)
		assert.Contains(t, res.out, `"status": "completed"`)
		assert.Contains(t, res.out, `"dry_run": true`)
		assert.True(t, res.closed)
		svc.AssertExpectations(t)
	})

	t.Run("prints the rejected report and fails", func(t *testing.T) {
		svc := new(mockService)
		unmapped := &reconciliation.UnmappedProductsError{Labels: []string{"Queso X"}}
		svc.On("Run", mock.Anything, mock.Anything).
			Return(&appreconcile.RunReport{Status: appreconcile.RunRejected, UnmappedLabels: unmapped.Labels}, unmapped)

		res := execute(t, svc, "reconcile", "-sales", path)

		assert.Equal(t, subcommands.ExitFailure, res.status)
		assert.Contains(t, res.out, `"rejected"`)
		assert.Contains(t, res.errOut, "Queso X")
	})

	t.Run("requires a sales file", func(t *testing.T) {
		svc := new(mockService)

		res := execute(t, svc, "reconcile")

		assert.Equal(t, subcommands.ExitUsageError, res.status)
		assert.Contains(t, res.errOut, "-sales is required")
		svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("missing file", func(t *testing.T) {
		res := execute(t, new(mockService), "reconcile", "-sales", filepath.Join(t.TempDir(), "nope.csv"))

		assert.Equal(t, subcommands.ExitUsageError, res.status)
	})
}

func TestCheck(t *testing.T) {
	path := writeSales(t, salesCSV)

	t.Run("all mapped", func(t *testing.T) {
		svc := new(mockService)
		svc.On("CheckMappings", mock.Anything, []byte(salesCSV)).
			Return(&appreconcile.MappingCheck{SaleLines: 1, Labels: 1, Unmapped: []string{}}, nil)

		res := execute(t, svc, "check", "-sales", path)

		assert.Equal(t, subcommands.ExitSuccess, res.status)
		assert.Contains(t, res.out, "All 1 labels are mapped")
	})

	t.Run("lists unmapped labels", func(t *testing.T) {
		svc := new(mockService)
		svc.On("CheckMappings", mock.Anything, mock.Anything).
			Return(&appreconcile.MappingCheck{SaleLines: 3, Labels: 2, Unmapped: []string{"Queso X"}}, nil)

		res := execute(t, svc, "check", "-sales", path)

		assert.Equal(t, subcommands.ExitFailure, res.status)
		assert.Contains(t, res.out, "1 of 2 labels are unmapped")
		assert.Contains(t, res.out, "  Queso X")
	})

	t.Run("lists ambiguous labels", func(t *testing.T) {
		svc := new(mockService)
		svc.On("CheckMappings", mock.Anything, mock.Anything).
			Return(&appreconcile.MappingCheck{SaleLines: 3, Labels: 2, Unmapped: []string{}, Ambiguous: []string{"Jamon"}}, nil)

		res := execute(t, svc, "check", "-sales", path)

		assert.Equal(t, subcommands.ExitFailure, res.status)
		assert.NotContains(t, res.out, "unmapped")
		assert.Contains(t, res.out, "1 of 2 labels map to more than one admin code")
		assert.Contains(t, res.out, "  Jamon")
	})
}

func TestStock(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		svc := new(mockService)
		svc.On("StockPreview", mock.Anything, 5).
			Return(&appreconcile.StockPreview{Total: 1, Records: []reconciliation.StockRecord{{AdminCode: 100, Description: "Queso X"}}}, nil)

		res := execute(t, svc, "stock")

		assert.Equal(t, subcommands.ExitSuccess, res.status)
		assert.Contains(t, res.out, `"total": 1`)
		svc.AssertExpectations(t)
	})

	t.Run("explicit limit", func(t *testing.T) {
		svc := new(mockService)
		svc.On("StockPreview", mock.Anything, 0).Return(&appreconcile.StockPreview{}, nil)

		res := execute(t, svc, "stock", "-limit", "0")

		assert.Equal(t, subcommands.ExitSuccess, res.status)
		svc.AssertExpectations(t)
	})

	t.Run("negative limit", func(t *testing.T) {
		res := execute(t, new(mockService), "stock", "-limit", "-1")

		assert.Equal(t, subcommands.ExitUsageError, res.status)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := new(mockService)
		svc.On("StockPreview", mock.Anything, 5).
			Return(nil, shared.NewDomainError(shared.CodeCollaboratorFailure, "sheets unavailable"))

		res := execute(t, svc, "stock")

		assert.Equal(t, subcommands.ExitFailure, res.status)
		assert.Contains(t, res.errOut, "sheets unavailable")
	})
}

func TestRefresh(t *testing.T) {
	svc := new(mockService)
	svc.On("RefreshMasterData", mock.Anything).Return(nil)

	res := execute(t, svc, "refresh")

	assert.Equal(t, subcommands.ExitSuccess, res.status)
	assert.Contains(t, res.out, "cleared")
	assert.True(t, res.closed)
}

func TestConnectFailure(t *testing.T) {
	var errOut bytes.Buffer
	e := &env{
		out:    &bytes.Buffer{},
		errOut: &errOut,
		open: func(context.Context, string) (service, func(), error) {
			return nil, nil, errors.New("error reading config file")
		},
	}
	cmd := &refreshCmd{baseCmd: baseCmd{env: e}}

	status := cmd.Execute(context.Background(), flag.NewFlagSet("refresh", flag.ContinueOnError))

	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut.String(), "error reading config file")
}
