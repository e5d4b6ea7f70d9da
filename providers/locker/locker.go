// Package locker defines the cross-process lock used to serialize expensive,
// cache-filling work such as document summarization. Implementations live in
// subpackages.
package locker

import (
	"context"
	"time"
)

// UnlockFunc releases a held lock.
type UnlockFunc func(ctx context.Context) error

// Locker acquires a named lock, blocking until it is held or ctx is done. ttl
// bounds how long a crashed holder can keep the lock.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
