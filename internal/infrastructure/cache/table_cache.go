// Package cache keeps recently read master data tables so repeated runs do
// not hit the backing spreadsheet on every request.
package cache

import (
	"context"
	"time"

	"github.com/stockrecon/backend/internal/domain/tabular"
)

// DefaultTTL bounds how stale a cached table may be
const DefaultTTL = 10 * time.Minute

// TableCache stores tables by name. Get returns nil, nil on a miss.
type TableCache interface {
	Get(ctx context.Context, name string) (*tabular.Table, error)
	Set(ctx context.Context, name string, table *tabular.Table, ttl time.Duration) error
	Delete(ctx context.Context, names ...string) error
}

// Stats holds hit and miss counters
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}
