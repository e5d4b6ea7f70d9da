// Package redis implements locker.Locker on top of Redis SET NX PX.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/leofalp/crewgraph/providers/locker"
)

// DefaultPollInterval is how often a contended lock is retried.
const DefaultPollInterval = 100 * time.Millisecond

// ErrLockNotHeld is returned by the unlock function when the lock expired or was
// taken over before release.
var ErrLockNotHeld = errors.New("redis lock: lock no longer held")

// releaseScript deletes the key only when it still holds our token.
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Locker implements locker.Locker using Redis.
type Locker struct {
	client       backend.UniversalClient
	prefix       string
	pollInterval time.Duration
}

var _ locker.Locker = (*Locker)(nil)

// Option configures a Locker.
type Option func(*Locker)

// WithPollInterval sets how often a contended lock is retried.
func WithPollInterval(interval time.Duration) Option {
	return func(l *Locker) {
		if interval > 0 {
			l.pollInterval = interval
		}
	}
}

// NewLocker creates a Redis locker. Keys are stored as <prefix>lock:<key>.
func NewLocker(client backend.UniversalClient, prefix string, opts ...Option) *Locker {
	l := &Locker{client: client, prefix: prefix, pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock acquires the lock for key, polling until it is free or ctx is done. Each
// acquisition stores a fresh token so a holder can never release someone
// else's lock.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (locker.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("redis error acquiring lock %s: %w", lockKey, err)
		}
		if acquired {
			return func(ctx context.Context) error {
				released, err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Int()
				if err != nil {
					return fmt.Errorf("redis error releasing lock %s: %w", lockKey, err)
				}
				if released == 0 {
					return ErrLockNotHeld
				}
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
