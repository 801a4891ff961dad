package lock

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client), mr
}

func TestAcquireAndRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "account:1000000000:lock", 100*time.Millisecond, time.Minute)
	require.NoError(t, err)
	require.True(t, mr.Exists("account:1000000000:lock"))

	require.NoError(t, lease.Release(ctx))
	require.False(t, mr.Exists("account:1000000000:lock"))
}

func TestAcquireHeldKeyTimesOut(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "k", 100*time.Millisecond, time.Minute)
	require.NoError(t, err)

	otherClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = otherClient.Close() })
	other := NewRedisLocker(otherClient)

	_, err = other.Acquire(ctx, "k", 120*time.Millisecond, time.Minute)
	require.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, lease.Release(ctx))
	_, err = other.Acquire(ctx, "k", 120*time.Millisecond, time.Minute)
	require.NoError(t, err)
}

func TestLeaseExpiryFreesTheKey(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "k", 50*time.Millisecond, 100*time.Millisecond)
	require.NoError(t, err)
	mr.FastForward(150 * time.Millisecond)

	_, err = locker.Acquire(ctx, "k", 50*time.Millisecond, time.Minute)
	require.NoError(t, err)
}

func TestReleaseOnlyDeletesOwnToken(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "k", 50*time.Millisecond, 100*time.Millisecond)
	require.NoError(t, err)

	// Lease expires and another owner takes the key.
	mr.FastForward(150 * time.Millisecond)
	require.NoError(t, mr.Set("k", "other-token"))

	// The stale holder must not delete the new owner's lock.
	require.NoError(t, lease.Release(ctx))
	require.True(t, mr.Exists("k"))
}

func TestStaleReleaseKeepsSameProcessReacquisition(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "k", 50*time.Millisecond, 100*time.Millisecond)
	require.NoError(t, err)

	// The lease expires while the first holder is still working, and the
	// same process acquires the key again for a new request.
	mr.FastForward(150 * time.Millisecond)
	current, err := locker.Acquire(ctx, "k", 50*time.Millisecond, time.Minute)
	require.NoError(t, err)

	// The stale holder's release must not touch the current holder's lock.
	require.NoError(t, stale.Release(ctx))
	require.True(t, mr.Exists("k"))

	require.NoError(t, current.Release(ctx))
	require.False(t, mr.Exists("k"))
}
