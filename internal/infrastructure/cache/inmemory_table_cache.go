package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stockrecon/backend/internal/domain/tabular"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryTableCache implements TableCache in process memory.
// Entries are deep copies so callers cannot mutate what is cached.
type InMemoryTableCache struct {
	tables          sync.Map // map[string]*cacheEntry
	ttl             time.Duration
	cleanupInterval time.Duration
	logger          *zap.Logger
	stopCh          chan struct{}
	stopped         int32

	hits   int64
	misses int64
}

type cacheEntry struct {
	table     *tabular.Table
	expiresAt time.Time
}

func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryOption configures an InMemoryTableCache
type InMemoryOption func(*InMemoryTableCache)

// WithDefaultTTL sets the TTL used when Set is called with zero
func WithDefaultTTL(ttl time.Duration) InMemoryOption {
	return func(c *InMemoryTableCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired entries are swept
func WithCleanupInterval(d time.Duration) InMemoryOption {
	return func(c *InMemoryTableCache) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryOption {
	return func(c *InMemoryTableCache) {
		c.logger = logger
	}
}

// NewInMemoryTableCache creates the cache and starts its cleanup loop.
// Call Close to stop it.
func NewInMemoryTableCache(opts ...InMemoryOption) *InMemoryTableCache {
	c := &InMemoryTableCache{
		ttl:             DefaultTTL,
		cleanupInterval: defaultCleanupInterval,
		logger:          zap.NewNop(),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()
	return c
}

// Get returns a copy of the cached table, or nil on a miss
func (c *InMemoryTableCache) Get(ctx context.Context, name string) (*tabular.Table, error) {
	if value, ok := c.tables.Load(name); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Table cache hit", zap.String("table", name))
			return entry.table.Clone(), nil
		}
		c.tables.Delete(name)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("Table cache miss", zap.String("table", name))
	return nil, nil
}

// Set stores a copy of table. A zero ttl uses the default.
func (c *InMemoryTableCache) Set(ctx context.Context, name string, table *tabular.Table, ttl time.Duration) error {
	if table == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.tables.Store(name, &cacheEntry{
		table:     table.Clone(),
		expiresAt: time.Now().Add(ttl),
	})
	c.logger.Debug("Cached table", zap.String("table", name), zap.Int("rows", table.Len()), zap.Duration("ttl", ttl))
	return nil
}

// Delete removes tables from the cache
func (c *InMemoryTableCache) Delete(ctx context.Context, names ...string) error {
	for _, name := range names {
		c.tables.Delete(name)
	}
	return nil
}

// Stats returns hit and miss counters
func (c *InMemoryTableCache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *InMemoryTableCache) Close() {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
}

func (c *InMemoryTableCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			removed := 0
			c.tables.Range(func(key, value any) bool {
				if value.(*cacheEntry).isExpired() {
					c.tables.Delete(key)
					removed++
				}
				return true
			})
			if removed > 0 {
				c.logger.Debug("Cleaned up expired tables", zap.Int("removed", removed))
			}
		}
	}
}
