package roomlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix     = "roomlock"
	defaultRetryInterval = 25 * time.Millisecond
)

// Deletes the key only if it still holds our token, so an expired lock taken
// over by another holder is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease-based lock shared by every instance talking to the same
// Redis. A holder that dies keeps the room locked for at most ttl.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		retry:  defaultRetryInterval,
		prefix: defaultKeyPrefix,
	}
}

func (r *Redis) key(roomID int64) string {
	return fmt.Sprintf("%s:%d", r.prefix, roomID)
}

func (r *Redis) Lock(ctx context.Context, roomID int64) (func(), error) {
	key := r.key(roomID)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: room %d: %v", ErrLockWait, roomID, ctx.Err())
			}
			return nil, fmt.Errorf("acquire redis lock for room %d: %w", roomID, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: room %d: %v", ErrLockWait, roomID, ctx.Err())
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			// an unlock failure leaves the key to expire after ttl
			_ = unlockScript.Run(ctx, r.client, []string{key}, token).Err()
		})
	}, nil
}
