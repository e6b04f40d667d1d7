package shared

import (
	"context"
	"time"
)

// SubmissionGuard is a short-lived, keyed mutual exclusion lock.
// It keeps a second checkout for the same cart session from starting while
// one is still in flight, across every process that shares the backing store.
type SubmissionGuard interface {
	// Acquire takes the lock for key. It returns false when another holder
	// already owns it. The lock expires on its own after ttl.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock for key. Releasing a lock that is not held is not an error.
	Release(ctx context.Context, key string) error

	// Held reports whether any holder currently owns the lock for key.
	Held(ctx context.Context, key string) (bool, error)

	// Close releases resources held by the guard.
	Close() error
}
