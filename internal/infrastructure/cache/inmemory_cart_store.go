package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
)

type cartEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryCartStore implements cart.SessionStore in process memory.
// Carts are stored encoded so callers never share a *cart.Cart.
// Suitable for single-instance deployments and tests.
type InMemoryCartStore struct {
	mu        sync.RWMutex
	entries   map[string]cartEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCartStore creates a store and starts its expiry sweeper.
func NewInMemoryCartStore() *InMemoryCartStore {
	s := &InMemoryCartStore{
		entries:  make(map[string]cartEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Load returns the session's cart, or an empty one when none is stored.
func (s *InMemoryCartStore) Load(_ context.Context, tenantID uuid.UUID, sessionID string) (*cart.Cart, error) {
	s.mu.RLock()
	e, ok := s.entries[cartKey(tenantID, sessionID)]
	s.mu.RUnlock()

	if !ok || !s.now().Before(e.expiresAt) {
		return cart.New(tenantID, sessionID), nil
	}
	return decodeCart(e.data)
}

// Save stores the cart with a fresh ttl.
func (s *InMemoryCartStore) Save(_ context.Context, c *cart.Cart, ttl time.Duration) error {
	data, err := encodeCart(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[cartKey(c.TenantID, c.SessionID)] = cartEntry{data: data, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes the session's cart.
func (s *InMemoryCartStore) Delete(_ context.Context, tenantID uuid.UUID, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, cartKey(tenantID, sessionID))
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper.
func (s *InMemoryCartStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// Size returns the number of stored carts, expired ones included.
func (s *InMemoryCartStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryCartStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *InMemoryCartStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ cart.SessionStore = (*InMemoryCartStore)(nil)
