package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// fakeCartStore keeps carts in a map.
type fakeCartStore struct {
	mu      sync.Mutex
	carts   map[string][]cart.Line
	saveErr error
	saves   int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string][]cart.Line)}
}

func (s *fakeCartStore) key(tenantID uuid.UUID, sessionID string) string {
	return tenantID.String() + "/" + sessionID
}

func (s *fakeCartStore) Load(_ context.Context, tenantID uuid.UUID, sessionID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.Restore(tenantID, sessionID, s.carts[s.key(tenantID, sessionID)], time.Now()), nil
}

func (s *fakeCartStore) Save(_ context.Context, c *cart.Cart, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.carts[s.key(c.TenantID, c.SessionID)] = c.Lines()
	return nil
}

func (s *fakeCartStore) Delete(_ context.Context, tenantID uuid.UUID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	delete(s.carts, s.key(tenantID, sessionID))
	return nil
}

func (s *fakeCartStore) Close() error { return nil }

func (s *fakeCartStore) lines(tenantID uuid.UUID, sessionID string) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[s.key(tenantID, sessionID)]
}

// fakeGuard is an in-process SubmissionGuard.
type fakeGuard struct {
	mu         sync.Mutex
	held       map[string]bool
	acquireErr error
	releases   int
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{held: make(map[string]bool)}
}

func (g *fakeGuard) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquireErr != nil {
		return false, g.acquireErr
	}
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	g.releases++
	return nil
}

func (g *fakeGuard) Held(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[key], nil
}

func (g *fakeGuard) Close() error { return nil }

// fakeCatalog serves snapshots from a map.
type fakeCatalog struct {
	products map[uuid.UUID]*catalog.ProductSnapshot
}

func (f *fakeCatalog) LookupProduct(_ context.Context, _ uuid.UUID, productID uuid.UUID) (*catalog.ProductSnapshot, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) add(name, list, promo string, available bool) *catalog.ProductSnapshot {
	p := &catalog.ProductSnapshot{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.RequireFromString(list),
		Available: available,
	}
	if promo != "" {
		v := decimal.RequireFromString(promo)
		p.PromotionalPrice = &v
	}
	f.products[p.ID] = p
	return p
}

// MockOrderStore is a mock implementation of trade.OrderStore.
type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) CreateOrder(ctx context.Context, draft *trade.OrderDraft, tenantID uuid.UUID) (*trade.OrderRecord, error) {
	args := m.Called(ctx, draft, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.OrderRecord), args.Error(1)
}

// blockingOrderStore holds CreateOrder until release is closed.
type blockingOrderStore struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingOrderStore() *blockingOrderStore {
	return &blockingOrderStore{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingOrderStore) CreateOrder(ctx context.Context, _ *trade.OrderDraft, tenantID uuid.UUID) (*trade.OrderRecord, error) {
	b.entered <- struct{}{}
	select {
	case <-b.release:
		return &trade.OrderRecord{ID: uuid.New(), TenantID: tenantID, OrderNumber: "ORD-2026-00001"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordingMetrics captures recorded outcomes.
type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	placed   int
}

func (m *recordingMetrics) RecordCheckout(_ context.Context, _ uuid.UUID, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) RecordOrderPlaced(_ context.Context, _ uuid.UUID, itemCount int, _ decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed += itemCount
}

var errStoreDown = errors.New("order store unavailable")

func validCheckoutRequest() CheckoutRequest {
	return CheckoutRequest{
		CustomerName:  "Ana Souza",
		CustomerEmail: "ana@example.com",
		CustomerPhone: "555-0100",
		Street:        "Rua A, 10",
		City:          "Recife",
		State:         "PE",
		Zip:           "50000-000",
	}
}
