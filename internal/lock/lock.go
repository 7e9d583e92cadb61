package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cafeledger/internal/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotObtained is returned when the lock could not be acquired before giving up.
var ErrNotObtained = errors.New("could not obtain lock")

// Locker runs fn while holding an exclusive lock on key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// MutexLocker serializes callers within a single process.
type MutexLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{slots: make(map[string]chan struct{})}
}

func (m *MutexLocker) slot(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		m.slots[key] = s
	}
	return s
}

func (m *MutexLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s := m.slot(key)
	select {
	case s <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrNotObtained, key, ctx.Err())
	}
	defer func() { <-s }()
	return fn(ctx)
}

// RedisLocker coordinates several API instances through a Redis lease.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	log    logrus.FieldLogger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		// wait up to roughly the lease length for the current holder
		retry: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(ttl/(50*time.Millisecond))),
		log:   log,
	}
}

func (r *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l, err := r.client.Obtain(ctx, "lock:"+key, r.ttl, &redislock.Options{RetryStrategy: r.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.LogError(r.log, "lock", "WithLock", "Could not obtain lock", key, err)
		return fmt.Errorf("%w: %s", ErrNotObtained, key)
	} else if err != nil {
		logger.LogError(r.log, "lock", "WithLock", "Error obtaining lock", key, err)
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		// release with a fresh context so a cancelled request still frees the lease
		if err := l.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.LogError(r.log, "lock", "WithLock", "Error releasing lock", key, err)
		}
	}()
	return fn(ctx)
}
