package cache

import (
	"context"
	"time"

	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stockrecon/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CachingReader reads tables through a cache. Cache failures are logged
// and the source is read directly.
type CachingReader struct {
	source appreconcile.TableReader
	cache  TableCache
	ttl    time.Duration
}

var (
	_ appreconcile.TableReader      = (*CachingReader)(nil)
	_ appreconcile.CacheInvalidator = (*CachingReader)(nil)
)

// NewCachingReader wraps source. A nil cache disables caching.
func NewCachingReader(source appreconcile.TableReader, cache TableCache, ttl time.Duration) *CachingReader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingReader{source: source, cache: cache, ttl: ttl}
}

// ReadTable returns the cached table or reads and caches it
func (r *CachingReader) ReadTable(ctx context.Context, name string) (*tabular.Table, error) {
	if r.cache == nil {
		return r.source.ReadTable(ctx, name)
	}
	log := logger.L(ctx)

	table, err := r.cache.Get(ctx, name)
	if err != nil {
		log.Warn("Table cache read failed, reading source", zap.String("table", name), zap.Error(err))
	}
	if table != nil {
		return table, nil
	}

	table, err = r.source.ReadTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, name, table, r.ttl); err != nil {
		log.Warn("Failed to cache table", zap.String("table", name), zap.Error(err))
	}
	return table, nil
}

// Invalidate drops the cached copies of names
func (r *CachingReader) Invalidate(ctx context.Context, names ...string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, names...)
}
