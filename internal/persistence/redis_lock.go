package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockNotAcquired is returned when the lock wait expires.
var ErrLockNotAcquired = errors.New("lock not acquired")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// leaseStore holds token-owned leases on keys.
type leaseStore interface {
	// acquire sets key to token unless it is held; the lease lapses after ttl.
	acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// release drops key only while token still owns it.
	release(ctx context.Context, key, token string) error
}

type redisLeases struct {
	client *redis.Client
}

func (r redisLeases) acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, token, ttl).Result()
}

func (r redisLeases) release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, r.client, []string{key}, token).Err()
}

// RedisLocker is a lease-based mutual exclusion lock on a Redis key
// (SET NX PX). The lease bounds how long a crashed holder can block others.
type RedisLocker struct {
	leases    leaseStore
	namespace string
	ttl       time.Duration
	wait      time.Duration
	poll      time.Duration
	logger    *zap.Logger
}

// NewRedisLocker builds a locker whose keys live under namespace and whose
// leases last ttl. Lock gives up after waiting for the same duration.
func NewRedisLocker(client *redis.Client, namespace string, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	return newLocker(redisLeases{client: client}, namespace, ttl, logger)
}

func newLocker(leases leaseStore, namespace string, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{leases: leases, namespace: namespace, ttl: ttl, wait: ttl, poll: 25 * time.Millisecond, logger: logger}
}

func (l *RedisLocker) lockKey(key string) string {
	if l.namespace == "" {
		return key
	}
	return l.namespace + ":" + key
}

// Lock acquires key and returns its release function.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := l.lockKey(key)
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.leases.acquire(ctx, lockKey, token, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				if err := l.leases.release(context.Background(), lockKey, token); err != nil {
					l.logger.Warn("failed to release lock", zap.String("key", lockKey), zap.Error(err))
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}
