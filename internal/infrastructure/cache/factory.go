package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the session-scoped stores used by the storefront.
type Stores struct {
	Carts  cart.SessionStore
	Guard  shared.SubmissionGuard
	Client *redis.Client // nil for in-memory stores
}

// Close closes the stores and the Redis client, if any.
func (s *Stores) Close() error {
	_ = s.Carts.Close()
	_ = s.Guard.Close()
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}

// StoreFactory creates session stores based on configuration.
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory.
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory.
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory.
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryStores creates process-local stores.
// They do not share carts or checkout locks across instances.
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		Carts: NewInMemoryCartStore(),
		Guard: NewInMemorySubmissionGuard(),
	}
}

// CreateStores uses Redis when enabled and reachable.
func (f *StoreFactory) CreateStores(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cart store")
		return f.CreateInMemoryStores(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis cart store", zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Carts:  NewRedisCartStore(client),
			Guard:  NewRedisSubmissionGuard(client),
			Client: client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for cart sessions but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cart store. "+
		"Carts and checkout locks will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
