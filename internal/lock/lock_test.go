package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, ttl, WithRetryDelay(5*time.Millisecond)), mr
}

func TestPolicyKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-3b7d-4c55-9a0e-0d2f6b8e4a11")
	assert.Equal(t, "policy:6f1c2a9e-3b7d-4c55-9a0e-0d2f6b8e4a11", PolicyKey(id))
}

func exclusive(t *testing.T, l Locker) {
	t.Helper()
	var (
		wg      sync.WaitGroup
		holders int32
		maxSeen int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), "policy:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&holders, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&holders, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen)
}

func TestLocal_Exclusive(t *testing.T) {
	exclusive(t, NewLocal())
}

func TestLocal_ContextCancelled(t *testing.T) {
	l := NewLocal()
	release, err := l.Lock(context.Background(), "policy:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "policy:1")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Other keys are independent.
	other, err := l.Lock(context.Background(), "policy:2")
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Lock(context.Background(), "policy:1")
	require.NoError(t, err)
	again()

	assert.Empty(t, l.keys)
}

func TestRedis_LockUnlock(t *testing.T) {
	l, mr := newRedisLocker(t, time.Second)

	release, err := l.Lock(context.Background(), "policy:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"policy:1"))

	release()
	assert.False(t, mr.Exists(keyPrefix+"policy:1"))
}

func TestRedis_Contention(t *testing.T) {
	l, _ := newRedisLocker(t, time.Second)

	release, err := l.Lock(context.Background(), "policy:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "policy:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()

	release2, err := l.Lock(context.Background(), "policy:1")
	require.NoError(t, err)
	release2()
}

func TestRedis_Exclusive(t *testing.T) {
	l, _ := newRedisLocker(t, time.Second)
	exclusive(t, l)
}

func TestRedis_ExpiredLockIsNotStolenBack(t *testing.T) {
	l, mr := newRedisLocker(t, time.Second)

	release, err := l.Lock(context.Background(), "policy:1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release2, err := l.Lock(context.Background(), "policy:1")
	require.NoError(t, err)

	// The first holder's release must not delete the second holder's key.
	release()
	assert.True(t, mr.Exists(keyPrefix+"policy:1"))

	release2()
	assert.False(t, mr.Exists(keyPrefix+"policy:1"))
}
