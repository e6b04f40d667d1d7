package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopfront/backend/internal/domain/cart"
)

// RedisCartStore implements cart.SessionStore on Redis.
// Every save rewrites the whole cart and slides its expiry.
type RedisCartStore struct {
	client *redis.Client
}

// NewRedisCartStore creates a cart store on an existing client.
func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client}
}

// Load returns the session's cart, or an empty one when none is stored.
func (s *RedisCartStore) Load(ctx context.Context, tenantID uuid.UUID, sessionID string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(tenantID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(tenantID, sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	c, err := decodeCart(data)
	if err != nil {
		return nil, err
	}
	if c.TenantID != tenantID || c.SessionID != sessionID {
		return cart.New(tenantID, sessionID), nil
	}
	return c, nil
}

// Save stores the cart with a fresh ttl.
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart, ttl time.Duration) error {
	data, err := encodeCart(c)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, cartKey(c.TenantID, c.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes the session's cart.
func (s *RedisCartStore) Delete(ctx context.Context, tenantID uuid.UUID, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(tenantID, sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner.
func (s *RedisCartStore) Close() error {
	return nil
}

var _ cart.SessionStore = (*RedisCartStore)(nil)
