package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stockrecon/backend/internal/domain/tabular"
)

// DefaultKeyPrefix namespaces cached tables in Redis
const DefaultKeyPrefix = "stockrecon:table:"

// RedisTableCache implements TableCache on Redis, sharing cached tables
// between server instances and CLI invocations
type RedisTableCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisTableCache creates a cache on an existing client
func NewRedisTableCache(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisTableCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisTableCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisTableCache) key(name string) string {
	return c.keyPrefix + name
}

// Get returns the cached table, or nil on a miss
func (c *RedisTableCache) Get(ctx context.Context, name string) (*tabular.Table, error) {
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s from cache: %w", name, err)
	}

	var table tabular.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to decode cached table %s: %w", name, err)
	}
	return &table, nil
}

// Set stores table with ttl. A zero ttl uses the default.
func (c *RedisTableCache) Set(ctx context.Context, name string, table *tabular.Table, ttl time.Duration) error {
	if table == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", name, err)
	}
	if err := c.client.Set(ctx, c.key(name), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache table %s: %w", name, err)
	}
	return nil
}

// Delete removes tables from the cache
func (c *RedisTableCache) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = c.key(name)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cached tables: %w", err)
	}
	return nil
}
