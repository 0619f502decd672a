package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backend is the cache and run lock chosen by configuration
type Backend struct {
	Cache  TableCache // nil when caching is disabled
	Locker appreconcile.RunLocker
	Driver string // driver actually in use after any fallback

	redis  *redis.Client
	memory *InMemoryTableCache
}

// Close releases the Redis connection and stops background cleanup
func (b *Backend) Close() error {
	if b.memory != nil {
		b.memory.Close()
	}
	if b.redis != nil {
		return b.redis.Close()
	}
	return nil
}

// Ping checks the Redis connection; other drivers are always reachable
func (b *Backend) Ping(ctx context.Context) error {
	if b.redis == nil {
		return nil
	}
	return b.redis.Ping(ctx).Err()
}

// Factory builds a Backend from configuration
type Factory struct {
	cache                 config.CacheConfig
	redis                 config.RedisConfig
	lock                  config.ReconcileConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, reconcileCfg config.ReconcileConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cache:                 cacheCfg,
		redis:                 redisCfg,
		lock:                  reconcileCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the configured backend
func (f *Factory) Create(ctx context.Context) (*Backend, error) {
	switch f.cache.Driver {
	case "none":
		f.logger.Info("Master data cache disabled")
		return &Backend{Locker: NewLocalRunLocker(), Driver: "none"}, nil
	case "redis":
		b, err := f.createRedis(ctx)
		if err == nil {
			f.logger.Info("Using Redis master data cache", zap.String("addr", f.redis.Addr()))
			return b, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required for cache but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory cache. "+
			"Run locks will not be shared between instances.",
			zap.Error(err))
		return f.createMemory(), nil
	default:
		return f.createMemory(), nil
	}
}

func (f *Factory) createRedis(ctx context.Context) (*Backend, error) {
	client, err := NewRedisClient(ctx, RedisConfig{
		Addr:     f.redis.Addr(),
		Password: f.redis.Password,
		DB:       f.redis.DB,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{
		Cache:  NewRedisTableCache(client, f.redis.KeyPrefix, f.cache.TTL),
		Locker: NewRedisRunLocker(client, f.lock.LockTTL),
		Driver: "redis",
		redis:  client,
	}, nil
}

func (f *Factory) createMemory() *Backend {
	mem := NewInMemoryTableCache(WithDefaultTTL(f.cache.TTL), WithInMemoryLogger(f.logger))
	return &Backend{
		Cache:  mem,
		Locker: NewLocalRunLocker(),
		Driver: "memory",
		memory: mem,
	}
}
