package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultSessionTTL is how long an untouched cart survives.
const DefaultSessionTTL = 24 * time.Hour

const (
	writeLockTTL  = 5 * time.Second
	writeLockPoll = 10 * time.Millisecond
)

// CartService runs cart operations for browsing sessions. Operations on the
// same session run one at a time.
type CartService struct {
	store    cart.SessionStore
	products catalog.ProductLookup
	ttl      time.Duration
	locks    *sessionLocks
	guard    shared.SubmissionGuard
	logger   *zap.Logger
}

// CartServiceOption configures a CartService.
type CartServiceOption func(*CartService)

// WithSubmissionGuard coordinates cart writes with checkouts through guard.
// Every process serving the same carts must share its backing store.
func WithSubmissionGuard(guard shared.SubmissionGuard) CartServiceOption {
	return func(s *CartService) {
		s.guard = guard
	}
}

// NewCartService creates a new CartService.
func NewCartService(store cart.SessionStore, products catalog.ProductLookup, ttl time.Duration, logger *zap.Logger, opts ...CartServiceOption) *CartService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CartService{
		store:    store,
		products: products,
		ttl:      ttl,
		locks:    newSessionLocks(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCart returns the session's cart; an unknown session has an empty cart.
func (s *CartService) GetCart(ctx context.Context, tenantID uuid.UUID, sessionID string) (*CartResponse, error) {
	c, err := s.store.Load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	response := ToCartResponse(c)
	return &response, nil
}

// AddItem snapshots the product from the catalog and adds it to the cart.
func (s *CartService) AddItem(ctx context.Context, tenantID uuid.UUID, sessionID string, req AddItemRequest) (*CartResponse, error) {
	telemetry.Annotate(ctx, telemetry.ProductAttr(req.ProductID))
	product, err := s.products.LookupProduct(ctx, tenantID, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Available {
		return nil, ErrProductUnavailable
	}

	return s.mutate(ctx, tenantID, sessionID, func(c *cart.Cart) {
		c.AddItem(product, req.Quantity)
	})
}

// UpdateQuantity sets a line's quantity; 0 or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, tenantID uuid.UUID, sessionID string, productID uuid.UUID, quantity int) (*CartResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(c *cart.Cart) {
		c.UpdateQuantity(productID, quantity)
	})
}

// RemoveItem removes a line; removing an absent product succeeds.
func (s *CartService) RemoveItem(ctx context.Context, tenantID uuid.UUID, sessionID string, productID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(c *cart.Cart) {
		c.RemoveItem(productID)
	})
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, tenantID uuid.UUID, sessionID string) error {
	return s.guarded(ctx, tenantID, sessionID, func() error {
		release, err := s.lock(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		defer release()

		if err := s.store.Delete(ctx, tenantID, sessionID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
}

func (s *CartService) mutate(ctx context.Context, tenantID uuid.UUID, sessionID string, fn func(*cart.Cart)) (*CartResponse, error) {
	var response CartResponse
	err := s.guarded(ctx, tenantID, sessionID, func() error {
		return s.withCart(ctx, tenantID, sessionID, func(c *cart.Cart) (bool, error) {
			fn(c)
			response = ToCartResponse(c)
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// guarded runs a cart write under the session's shared write lock and
// refuses it with ErrSubmissionInProgress while a checkout holds the
// session's guard.
func (s *CartService) guarded(ctx context.Context, tenantID uuid.UUID, sessionID string, write func() error) error {
	if s.guard == nil {
		return write()
	}
	release, err := s.writeLock(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}
	defer release()

	held, err := s.guard.Held(ctx, GuardKey(tenantID, sessionID))
	if err != nil {
		return fmt.Errorf("check checkout guard: %w", err)
	}
	if held {
		return ErrSubmissionInProgress
	}
	return write()
}

// awaitWrites returns once no guarded write of the session is in flight.
// Called by checkout after taking the guard, so every later write sees it.
func (s *CartService) awaitWrites(ctx context.Context, tenantID uuid.UUID, sessionID string) error {
	if s.guard == nil {
		return nil
	}
	release, err := s.writeLock(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}
	release()
	return nil
}

// writeLock polls the guard for the session's cart write lock until it is
// free or ctx is done.
func (s *CartService) writeLock(ctx context.Context, tenantID uuid.UUID, sessionID string) (func(), error) {
	key := cartWriteKey(tenantID, sessionID)
	ticker := time.NewTicker(writeLockPoll)
	defer ticker.Stop()

	for {
		ok, err := s.guard.Acquire(ctx, key, writeLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire cart write lock: %w", err)
		}
		if ok {
			return func() {
				if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
					s.logger.Warn("failed to release cart write lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// withCart loads the session's cart under the session lock, runs fn, and
// saves the cart when fn reports a change. A failed save after fn has already
// succeeded is returned to the caller.
func (s *CartService) withCart(ctx context.Context, tenantID uuid.UUID, sessionID string, fn func(*cart.Cart) (bool, error)) error {
	release, err := s.lock(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}
	defer release()

	c, err := s.store.Load(ctx, tenantID, sessionID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	changed, err := fn(c)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := s.save(ctx, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *CartService) save(ctx context.Context, c *cart.Cart) error {
	if c.IsEmpty() {
		return s.store.Delete(ctx, c.TenantID, c.SessionID)
	}
	return s.store.Save(ctx, c, s.ttl)
}

func cartWriteKey(tenantID uuid.UUID, sessionID string) string {
	return "cart:" + tenantID.String() + ":" + sessionID
}

func (s *CartService) lock(ctx context.Context, tenantID uuid.UUID, sessionID string) (func(), error) {
	return s.locks.lock(ctx, tenantID.String()+":"+sessionID)
}
