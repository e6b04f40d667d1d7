package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderRepository persists orders together with their items.
type OrderRepository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*Order, error)

	// List pages through orders newest first. filter.Filters may carry
	// "status"; filter.Search matches customer name or order number.
	List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status OrderStatus) (int64, error)

	Save(ctx context.Context, order *Order) error
	// SaveWithLock writes order only while the stored version is
	// order.Version-1 and reports shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, order *Order) error

	// GenerateOrderNumber returns the next free number of the tenant.
	GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// OrderRecord acknowledges a stored order.
type OrderRecord struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	OrderNumber string
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// OrderStore accepts order drafts on behalf of a tenant. It is the only
// external call made while an order is submitted.
type OrderStore interface {
	CreateOrder(ctx context.Context, draft *OrderDraft, tenantID uuid.UUID) (*OrderRecord, error)
}
