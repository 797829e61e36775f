package roomlock

import (
	"context"

	"go.uber.org/zap"

	"room-reservation/pkg/circuitbreaker"
)

// Failover takes locks from primary while its circuit breaker is closed and
// from fallback while it is open.
type Failover struct {
	primary  Locker
	fallback Locker
	breaker  *circuitbreaker.CircuitBreaker
	log      *zap.Logger
}

func NewFailover(primary, fallback Locker, breaker *circuitbreaker.CircuitBreaker, log *zap.Logger) *Failover {
	if log == nil {
		log = zap.NewNop()
	}
	breaker.Ignore(ErrLockWait)
	return &Failover{primary: primary, fallback: fallback, breaker: breaker, log: log}
}

func (f *Failover) Lock(ctx context.Context, roomID int64) (func(), error) {
	var unlock func()
	err := f.breaker.Execute(func() error {
		u, err := f.primary.Lock(ctx, roomID)
		if err != nil {
			f.log.Warn("primary room lock failed", zap.Int64("roomId", roomID), zap.Error(err))
			return err
		}
		unlock = u
		return nil
	}, func() error {
		f.log.Warn("primary room lock unavailable, using fallback", zap.Int64("roomId", roomID))
		u, err := f.fallback.Lock(ctx, roomID)
		if err != nil {
			return err
		}
		unlock = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unlock, nil
}
