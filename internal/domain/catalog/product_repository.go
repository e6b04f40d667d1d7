package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductRepository stores a tenant's products. Every read is scoped to
// the tenant; a product of another tenant is reported as shared.ErrNotFound.
type ProductRepository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Product, error)

	// List pages through products. filter.Filters understands "status",
	// "min_price" and "max_price"; filter.Search matches name or code.
	List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, error)
	// Count ignores the paging fields of filter.
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	CodeTaken(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
}

// ProductSnapshot is the catalog's view of a product at the moment it is looked up.
// Cart lines copy from it so later catalog edits do not reach existing lines.
type ProductSnapshot struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	Name             string
	Price            decimal.Decimal
	PromotionalPrice *decimal.Decimal
	Image            string
	CustomFields     map[string]string
	Available        bool
}

// EffectivePrice returns the resolved unit price of the snapshot.
func (s *ProductSnapshot) EffectivePrice() decimal.Decimal {
	return EffectivePrice(s.Price, s.PromotionalPrice)
}

// ProductLookup resolves a product for a shopper. It returns shared.ErrNotFound when absent.
type ProductLookup interface {
	LookupProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductSnapshot, error)
}
