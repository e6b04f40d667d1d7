package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopfront/backend/internal/domain/shared"
)

// InMemorySubmissionGuard implements shared.SubmissionGuard for a single process.
type InMemorySubmissionGuard struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewInMemorySubmissionGuard creates a new in-process guard.
func NewInMemorySubmissionGuard() *InMemorySubmissionGuard {
	return &InMemorySubmissionGuard{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Acquire takes the lock for key unless a live holder exists.
func (g *InMemorySubmissionGuard) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiresAt, held := g.locks[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	g.locks[key] = now.Add(ttl)
	return true, nil
}

// Release frees the lock for key.
func (g *InMemorySubmissionGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.locks, key)
	g.mu.Unlock()
	return nil
}

// Held reports whether a live holder owns key.
func (g *InMemorySubmissionGuard) Held(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiresAt, held := g.locks[key]
	return held && g.now().Before(expiresAt), nil
}

// Close drops all locks.
func (g *InMemorySubmissionGuard) Close() error {
	g.mu.Lock()
	g.locks = make(map[string]time.Time)
	g.mu.Unlock()
	return nil
}

var _ shared.SubmissionGuard = (*InMemorySubmissionGuard)(nil)
