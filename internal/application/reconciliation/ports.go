// Package reconciliation orchestrates reconciliation runs: it loads master
// data, parses the sales extract, runs the engine and writes the snapshot.
package reconciliation

import (
	"context"

	"github.com/stockrecon/backend/internal/domain/reconciliation"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stockrecon/backend/internal/infrastructure/telemetry"
)

// TableReader reads a named master data table
type TableReader interface {
	ReadTable(ctx context.Context, name string) (*tabular.Table, error)
}

// TableWriter replaces a named master data table as a whole
type TableWriter interface {
	WriteTable(ctx context.Context, name string, table *tabular.Table) error
}

// TableStore reads and writes master data tables
type TableStore interface {
	TableReader
	TableWriter
}

// SalesParser turns a sales extract into sale lines
type SalesParser interface {
	Parse(ctx context.Context, data []byte) ([]reconciliation.SaleLine, error)
}

// CacheInvalidator drops cached copies of tables
type CacheInvalidator interface {
	Invalidate(ctx context.Context, names ...string) error
}

// RunLocker serialises writers of the same table. The returned function
// releases the lock.
type RunLocker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

// RunRecorder receives the outcome of every run
type RunRecorder interface {
	RecordRun(ctx context.Context, outcome telemetry.RunOutcome)
}
