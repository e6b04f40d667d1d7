package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func testSnapshot(tenantID uuid.UUID, name string, price int64, promo *int64) *catalog.ProductSnapshot {
	s := &catalog.ProductSnapshot{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         name,
		Price:        decimal.NewFromInt(price),
		Image:        "products/" + name + ".png",
		CustomFields: map[string]string{"size": "M"},
		Available:    true,
	}
	if promo != nil {
		p := decimal.NewFromInt(*promo)
		s.PromotionalPrice = &p
	}
	return s
}

func filledCart(tenantID uuid.UUID, sessionID string) *cart.Cart {
	promo := int64(40)
	c := cart.New(tenantID, sessionID)
	c.AddItem(testSnapshot(tenantID, "camiseta", 50, &promo), 2)
	c.AddItem(testSnapshot(tenantID, "bone", 10, nil), 1)
	return c
}

func TestRedisCartStore_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client)
	ctx := context.Background()
	tenantID := uuid.New()

	original := filledCart(tenantID, "sess-1")
	require.NoError(t, store.Save(ctx, original, time.Hour))
	assert.True(t, mr.Exists(cartKey(tenantID, "sess-1")))
	assert.Equal(t, time.Hour, mr.TTL(cartKey(tenantID, "sess-1")))

	loaded, err := store.Load(ctx, tenantID, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.TotalItems())
	assert.True(t, loaded.TotalPrice().Equal(decimal.NewFromInt(90)))

	lines := loaded.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "camiseta", lines[0].Name)
	require.NotNil(t, lines[0].PromotionalPrice)
	assert.True(t, lines[0].PromotionalPrice.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "M", lines[0].CustomFields["size"])
	assert.Nil(t, lines[1].PromotionalPrice)
}

func TestRedisCartStore_MissingAndExpired(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client)
	ctx := context.Background()
	tenantID := uuid.New()

	empty, err := store.Load(ctx, tenantID, "nobody")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "nobody", empty.SessionID)

	require.NoError(t, store.Save(ctx, filledCart(tenantID, "sess-2"), time.Minute))
	mr.FastForward(2 * time.Minute)

	expired, err := store.Load(ctx, tenantID, "sess-2")
	require.NoError(t, err)
	assert.True(t, expired.IsEmpty())
}

func TestRedisCartStore_TenantIsolationAndDelete(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisCartStore(client)
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()

	require.NoError(t, store.Save(ctx, filledCart(tenantA, "shared-session"), time.Hour))

	other, err := store.Load(ctx, tenantB, "shared-session")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	require.NoError(t, store.Delete(ctx, tenantA, "shared-session"))
	require.NoError(t, store.Delete(ctx, tenantA, "shared-session"))

	gone, err := store.Load(ctx, tenantA, "shared-session")
	require.NoError(t, err)
	assert.True(t, gone.IsEmpty())
}

func TestRedisCartStore_CorruptDocument(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client)
	tenantID := uuid.New()

	require.NoError(t, mr.Set(cartKey(tenantID, "bad"), "{not json"))

	_, err := store.Load(context.Background(), tenantID, "bad")
	assert.Error(t, err)
}

func TestRedisCartStore_ConnectionFailure(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client)
	mr.Close()

	_, err := store.Load(context.Background(), uuid.New(), "sess")
	assert.Error(t, err)
}
