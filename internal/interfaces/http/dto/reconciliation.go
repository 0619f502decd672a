package dto

// RunQuery holds the query parameters of a reconciliation request
type RunQuery struct {
	DryRun bool `form:"dry_run"`
}

// StockQuery holds the query parameters of the stock preview
type StockQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0,max=10000"`
}

// DefaultStockLimit is the number of ledger rows shown when no limit is given
const DefaultStockLimit = 5

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks,omitempty"`
}
