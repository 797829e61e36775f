// Package roomlock serializes work on a single room across goroutines and,
// with Redis, across service instances.
package roomlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrLockWait is returned when the context ends before the room lock is free.
var ErrLockWait = errors.New("timed out waiting for room lock")

// Locker grants exclusive access to one room at a time. The returned unlock
// func is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, roomID int64) (unlock func(), err error)
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process keyed mutex. Entries are dropped once no goroutine
// holds or waits for them.
type Local struct {
	mu    sync.Mutex
	rooms map[int64]*localEntry
}

func NewLocal() *Local {
	return &Local{rooms: make(map[int64]*localEntry)}
}

func (l *Local) Lock(ctx context.Context, roomID int64) (func(), error) {
	l.mu.Lock()
	e, ok := l.rooms[roomID]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(roomID, e)
		return nil, fmt.Errorf("%w: room %d: %v", ErrLockWait, roomID, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(roomID, e)
		})
	}, nil
}

func (l *Local) release(roomID int64, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.rooms, roomID)
	}
}

func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
