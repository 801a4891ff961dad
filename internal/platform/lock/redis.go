// Package lock provides a redis-backed mutual exclusion primitive with a
// bounded acquisition wait and a lease that expires on its own, so a crashed
// holder never blocks a key forever.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is still held by another owner
// after the wait window elapses.
var ErrNotAcquired = errors.New("lock: not acquired within wait window")

// Lease is a held lock. Each holder releases through its own lease, so a
// holder whose lease already expired cannot delete a lock that has since
// changed hands.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker is a mutual-exclusion primitive keyed by an arbitrary string.
type Locker interface {
	Acquire(ctx context.Context, key string, wait, lease time.Duration) (Lease, error)
}

// releaseScript deletes the key only when the stored token matches the
// holder's own.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const pollInterval = 50 * time.Millisecond

// RedisLocker implements Locker on a single redis instance using SET NX PX.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker constructs a RedisLocker.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the lock for key, polling until the wait window closes.
// The lease bounds how long the lock survives if Release is never called.
func (l *RedisLocker) Acquire(ctx context.Context, key string, wait, lease time.Duration) (Lease, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return &redisLease{client: l.client, key: key, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
}

// Release gives the lock back. Releasing after the lease expired, or after
// the key was reacquired by another holder, is a no-op.
func (le *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, le.client, []string{le.key}, le.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("lock: release %s: %w", le.key, err)
	}
	return nil
}
