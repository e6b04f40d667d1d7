package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartService() (*CartService, *fakeCartStore, *fakeCatalog) {
	store := newFakeCartStore()
	products := &fakeCatalog{products: map[uuid.UUID]*catalog.ProductSnapshot{}}
	return NewCartService(store, products, 0, nil), store, products
}

func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("adds and merges lines", func(t *testing.T) {
		svc, store, products := newTestCartService()
		a := products.add("A", "50", "", true)

		_, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
		require.NoError(t, err)
		resp, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
		require.NoError(t, err)

		require.Len(t, resp.Items, 1)
		assert.Equal(t, 2, resp.Items[0].Quantity)
		assert.Equal(t, 2, resp.TotalItems)
		assert.True(t, resp.TotalPrice.Equal(decimal.NewFromInt(100)))
		assert.Len(t, store.lines(tenantID, "s1"), 1)
	})

	t.Run("missing quantity adds one", func(t *testing.T) {
		svc, _, products := newTestCartService()
		a := products.add("A", "50", "", true)

		resp, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.TotalItems)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _, _ := newTestCartService()

		_, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: uuid.New(), Quantity: 1})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("inactive product", func(t *testing.T) {
		svc, store, products := newTestCartService()
		p := products.add("Gone", "10", "", false)

		_, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: p.ID, Quantity: 1})
		assert.ErrorIs(t, err, ErrProductUnavailable)
		assert.Empty(t, store.lines(tenantID, "s1"))
	})

	t.Run("sessions and tenants are isolated", func(t *testing.T) {
		svc, _, products := newTestCartService()
		a := products.add("A", "50", "", true)

		_, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
		require.NoError(t, err)

		other, err := svc.GetCart(ctx, tenantID, "s2")
		require.NoError(t, err)
		assert.Empty(t, other.Items)

		otherTenant, err := svc.GetCart(ctx, uuid.New(), "s1")
		require.NoError(t, err)
		assert.Empty(t, otherTenant.Items)
	})

	t.Run("save failure is reported", func(t *testing.T) {
		svc, store, products := newTestCartService()
		a := products.add("A", "50", "", true)
		store.saveErr = errors.New("redis down")

		_, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
		assert.Error(t, err)
	})
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, store, products := newTestCartService()
	a := products.add("A", "50", "", true)
	b := products.add("B", "30", "20", true)

	_, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: b.ID, Quantity: 2})
	require.NoError(t, err)

	resp, err := svc.GetCart(ctx, tenantID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalItems)
	assert.True(t, resp.TotalPrice.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, a.ID, resp.Items[0].ProductID)
	assert.True(t, resp.Items[1].UnitPrice.Equal(decimal.NewFromInt(20)))
	assert.True(t, resp.Items[1].LineTotal.Equal(decimal.NewFromInt(40)))

	resp, err = svc.UpdateQuantity(ctx, tenantID, "s1", b.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, resp.TotalItems)

	resp, err = svc.UpdateQuantity(ctx, tenantID, "s1", b.ID, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	resp, err = svc.RemoveItem(ctx, tenantID, "s1", b.ID)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	resp, err = svc.RemoveItem(ctx, tenantID, "s1", a.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Empty(t, store.lines(tenantID, "s1"))

	_, err = svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, tenantID, "s1"))
	resp, err = svc.GetCart(ctx, tenantID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalItems)
}

func TestCartService_ConcurrentAddsAreSerialised(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, _, products := newTestCartService()
	a := products.add("A", "1", "", true)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	resp, err := svc.GetCart(ctx, tenantID, "s1")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 25, resp.Items[0].Quantity)
	assert.Equal(t, 0, svc.locks.size())
}

func TestCartService_WritesRefusedWhileCheckoutHoldsGuard(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	store := newFakeCartStore()
	products := &fakeCatalog{products: map[uuid.UUID]*catalog.ProductSnapshot{}}
	guard := newFakeGuard()
	svc := NewCartService(store, products, 0, nil, WithSubmissionGuard(guard))
	a := products.add("A", "10", "", true)

	_, err := svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Empty(t, guard.held, "cart write lock is released")

	guard.held[GuardKey(tenantID, "s1")] = true
	_, err = svc.AddItem(ctx, tenantID, "s1", AddItemRequest{ProductID: a.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Equal(t, 1, store.saves)

	_, err = svc.AddItem(ctx, tenantID, "s2", AddItemRequest{ProductID: a.ID, Quantity: 1})
	assert.NoError(t, err, "other sessions are not affected")

	resp, err := svc.GetCart(ctx, tenantID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalItems, "reads are not blocked")
}

func TestSessionLocks_ContextCancel(t *testing.T) {
	locks := newSessionLocks()
	release, err := locks.lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.lock(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)

	release()
	release()
	assert.Equal(t, 0, locks.size())
}
