package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxCachedProducts = 10000

type cachedSnapshot struct {
	snapshot  *catalog.ProductSnapshot
	expiresAt time.Time
}

// CachedProductLookup caches catalog lookups for a short TTL and collapses
// concurrent misses for the same product into one repository call.
// It also handles product events so edits are visible before the TTL runs out.
type CachedProductLookup struct {
	next   catalog.ProductLookup
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]cachedSnapshot
}

// NewCachedProductLookup wraps next. A ttl <= 0 disables caching but keeps call collapsing.
func NewCachedProductLookup(next catalog.ProductLookup, ttl time.Duration, logger *zap.Logger) *CachedProductLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProductLookup{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		entries: make(map[string]cachedSnapshot),
	}
}

// LookupProduct returns a copy of the cached snapshot, loading it on a miss.
func (c *CachedProductLookup) LookupProduct(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.ProductSnapshot, error) {
	key := cacheKey(tenantID, productID)

	if snap, ok := c.get(key); ok {
		return copySnapshot(snap), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		snap, err := c.next.LookupProduct(ctx, tenantID, productID)
		if err != nil {
			return nil, err
		}
		c.put(key, snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return copySnapshot(v.(*catalog.ProductSnapshot)), nil
}

// Invalidate drops the cached snapshot of a product.
func (c *CachedProductLookup) Invalidate(tenantID, productID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, cacheKey(tenantID, productID))
	c.mu.Unlock()
}

// EventTypes returns the product events that change what shoppers see.
func (c *CachedProductLookup) EventTypes() []string {
	return []string{
		catalog.EventTypeProductUpdated,
		catalog.EventTypeProductPriceChanged,
		catalog.EventTypeProductStatusChanged,
		catalog.EventTypeProductDeleted,
	}
}

// Handle invalidates the product the event is about.
func (c *CachedProductLookup) Handle(_ context.Context, event shared.DomainEvent) error {
	c.Invalidate(event.TenantID(), event.AggregateID())
	c.logger.Debug("product cache invalidated",
		zap.String("event_type", event.EventType()),
		zap.String("product_id", event.AggregateID().String()),
	)
	return nil
}

func (c *CachedProductLookup) get(key string) (*catalog.ProductSnapshot, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.snapshot, true
}

func (c *CachedProductLookup) put(key string, snap *catalog.ProductSnapshot) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	if len(c.entries) >= maxCachedProducts {
		now := c.now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cachedSnapshot{snapshot: copySnapshot(snap), expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func cacheKey(tenantID, productID uuid.UUID) string {
	return tenantID.String() + ":" + productID.String()
}

func copySnapshot(s *catalog.ProductSnapshot) *catalog.ProductSnapshot {
	out := *s
	if s.PromotionalPrice != nil {
		p := *s.PromotionalPrice
		out.PromotionalPrice = &p
	}
	out.CustomFields = make(map[string]string, len(s.CustomFields))
	for k, v := range s.CustomFields {
		out.CustomFields[k] = v
	}
	return &out
}
