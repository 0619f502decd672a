package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockrecon/backend/internal/domain/reconciliation"
)

// RunStatus is the final state of a run
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunRejected  RunStatus = "rejected"
	RunFailed    RunStatus = "failed"
)

// RunCommand asks for one reconciliation run
type RunCommand struct {
	SalesCSV []byte
	DryRun   bool
}

// RunReport describes a finished run
type RunReport struct {
	RunID          uuid.UUID                   `json:"run_id"`
	Status         RunStatus                   `json:"status"`
	DryRun         bool                        `json:"dry_run"`
	Written        bool                        `json:"written"`
	Audit          []reconciliation.AuditEntry `json:"audit"`
	Summary        reconciliation.Summary      `json:"summary"`
	UnmappedLabels []string                    `json:"unmapped_labels,omitempty"`
	StartedAt      time.Time                   `json:"started_at"`
	FinishedAt     time.Time                   `json:"finished_at"`
}

// MappingCheck lists the labels of a sales extract that would reject a run
type MappingCheck struct {
	SaleLines int      `json:"sale_lines"`
	Labels    int      `json:"labels"`
	Unmapped  []string `json:"unmapped"`
	Ambiguous []string `json:"ambiguous"`
}

// StockPreview is the head of the stock ledger
type StockPreview struct {
	Total   int                          `json:"total"`
	Records []reconciliation.StockRecord `json:"records"`
}
