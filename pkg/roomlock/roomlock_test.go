package roomlock

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"room-reservation/pkg/circuitbreaker"
)

func TestLocalSerializesSameRoom(t *testing.T) {
	l := NewLocal()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), 7)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.held())
}

func TestLocalDifferentRoomsDoNotBlock(t *testing.T) {
	l := NewLocal()
	unlock7, err := l.Lock(context.Background(), 7)
	require.NoError(t, err)
	defer unlock7()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlock8, err := l.Lock(ctx, 8)
	require.NoError(t, err)
	unlock8()
}

func TestLocalHonoursContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), 7)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, 7)
	assert.ErrorIs(t, err, ErrLockWait)

	unlock()
	unlock()
	assert.Equal(t, 0, l.held())
}

type stubLocker struct {
	err   error
	calls int32
}

func (s *stubLocker) Lock(context.Context, int64) (func(), error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return func() {}, nil
}

func TestFailoverUsesFallbackWhenBreakerOpens(t *testing.T) {
	primary := &stubLocker{err: errors.New("connection refused")}
	fallback := &stubLocker{}
	breaker := circuitbreaker.NewCircuitBreaker(1, time.Minute)
	f := NewFailover(primary, fallback, breaker, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := f.Lock(context.Background(), 7)
		assert.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, breaker.GetState())

	unlock, err := f.Lock(context.Background(), 7)
	require.NoError(t, err)
	unlock()
	assert.Equal(t, int32(2), atomic.LoadInt32(&primary.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fallback.calls))
}

func TestFailoverLockWaitDoesNotTripBreaker(t *testing.T) {
	primary := &stubLocker{err: ErrLockWait}
	breaker := circuitbreaker.NewCircuitBreaker(0, time.Minute)
	f := NewFailover(primary, &stubLocker{}, breaker, nil)

	_, err := f.Lock(context.Background(), 7)
	assert.ErrorIs(t, err, ErrLockWait)
	assert.Equal(t, circuitbreaker.StateClosed, breaker.GetState())
}

func TestRedisLock(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	l := NewRedis(client, 5*time.Second)
	l.prefix = "roomlock-test"
	unlock, err := l.Lock(context.Background(), 7)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, 7)
	assert.ErrorIs(t, err, ErrLockWait)

	unlock()
	unlock2, err := l.Lock(context.Background(), 7)
	require.NoError(t, err)
	unlock2()
}
