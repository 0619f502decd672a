package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/domain/shared"
)

// DefaultLockTTL bounds how long a crashed run can block the next one
const DefaultLockTTL = 2 * time.Minute

const lockKeyPrefix = "stockrecon:lock:"

var (
	_ appreconcile.RunLocker = (*RedisRunLocker)(nil)
	_ appreconcile.RunLocker = (*LocalRunLocker)(nil)
)

// RedisRunLocker locks a table across every process sharing the Redis server
type RedisRunLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisRunLocker creates a locker on an existing client
func NewRedisRunLocker(client redis.UniversalClient, ttl time.Duration) *RedisRunLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisRunLocker{locker: redislock.New(client), ttl: ttl}
}

// Acquire takes the lock for key without waiting
func (l *RedisRunLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, lockKeyPrefix+key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, runInProgress(key)
	}
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeCollaboratorFailure, "failed to obtain run lock", err)
	}

	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}

// LocalRunLocker locks a table within this process only
type LocalRunLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalRunLocker creates an in-process locker
func NewLocalRunLocker() *LocalRunLocker {
	return &LocalRunLocker{held: make(map[string]struct{})}
}

// Acquire takes the lock for key without waiting
func (l *LocalRunLocker) Acquire(_ context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, runInProgress(key)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}

func runInProgress(key string) error {
	return shared.NewDomainError(shared.CodeRunInProgress,
		fmt.Sprintf("another reconciliation is writing table '%s'", key))
}
