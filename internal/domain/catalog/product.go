package catalog

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus says whether a product can be bought.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// IsValid reports whether s is a known status.
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

const (
	maxCustomFields      = 50
	maxCustomFieldKeyLen = 64
	maxCustomFieldValLen = 500
)

// Product is a sellable item in a store's catalog.
// It is the aggregate root for product-related operations.
type Product struct {
	shared.TenantAggregateRoot
	Code             string
	Name             string
	Description      string
	Price            decimal.Decimal
	PromotionalPrice *decimal.Decimal
	ImageKey         string
	CustomFields     map[string]string
	Status           ProductStatus
	SortOrder        int
}

// NewProduct creates a new active product.
func NewProduct(tenantID uuid.UUID, code, name string, price decimal.Decimal) (*Product, error) {
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price, "Price"); err != nil {
		return nil, err
	}

	product := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                name,
		Price:               price,
		CustomFields:        map[string]string{},
		Status:              ProductStatusActive,
	}

	product.RaiseEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update replaces the product's name and description.
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.IncrementVersion()

	p.RaiseEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetPricing replaces the list price and the optional promotional price.
// A promotional price that is not below the list price is kept but has no effect.
func (p *Product) SetPricing(price decimal.Decimal, promotionalPrice *decimal.Decimal) error {
	if err := validatePrice(price, "Price"); err != nil {
		return err
	}
	if promotionalPrice != nil {
		if err := validatePrice(*promotionalPrice, "Promotional price"); err != nil {
			return err
		}
	}

	oldEffective := p.EffectivePrice()

	p.Price = price
	if promotionalPrice != nil {
		promo := *promotionalPrice
		p.PromotionalPrice = &promo
	} else {
		p.PromotionalPrice = nil
	}
	p.IncrementVersion()

	p.RaiseEvent(NewProductPriceChangedEvent(p, oldEffective))

	return nil
}

// SetImage records the storage key of the product image.
func (p *Product) SetImage(key string) error {
	if len(key) > 500 {
		return shared.NewDomainError("INVALID_IMAGE", "Image key cannot exceed 500 characters")
	}

	p.ImageKey = key
	p.IncrementVersion()

	return nil
}

// SetCustomFields replaces the store-defined attributes of the product.
func (p *Product) SetCustomFields(fields map[string]string) error {
	if len(fields) > maxCustomFields {
		return shared.NewDomainError("INVALID_CUSTOM_FIELDS", "Too many custom fields")
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		key := strings.TrimSpace(k)
		if key == "" || len(key) > maxCustomFieldKeyLen {
			return shared.NewDomainError("INVALID_CUSTOM_FIELDS", "Custom field names must be 1 to 64 characters")
		}
		if len(v) > maxCustomFieldValLen {
			return shared.NewDomainError("INVALID_CUSTOM_FIELDS", "Custom field values cannot exceed 500 characters")
		}
		copied[key] = v
	}

	p.CustomFields = copied
	p.IncrementVersion()

	return nil
}

// SetSortOrder moves the product in the storefront listing; lower first.
func (p *Product) SetSortOrder(order int) {
	p.SortOrder = order
	p.IncrementVersion()
}

// Activate puts the product back on sale.
func (p *Product) Activate() error { return p.setStatus(ProductStatusActive) }

// Deactivate takes the product off sale. It can no longer be added to a
// cart; lines already in a cart keep their snapshot.
func (p *Product) Deactivate() error { return p.setStatus(ProductStatusInactive) }

func (p *Product) setStatus(to ProductStatus) error {
	if p.Status == to {
		return shared.NewDomainError("ALREADY_"+strings.ToUpper(string(to)), "Product is already "+string(to))
	}
	from := p.Status
	p.Status = to
	p.IncrementVersion()
	p.RaiseEvent(NewProductStatusChangedEvent(p, from, to))
	return nil
}

// IsActive reports whether the product is on sale.
func (p *Product) IsActive() bool { return p.Status == ProductStatusActive }

// EffectivePrice returns the price a shopper pays for one unit.
func (p *Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.PromotionalPrice)
}

// IsOnPromotion reports whether the promotional price currently applies.
func (p *Product) IsOnPromotion() bool {
	return p.PromotionalPrice != nil && p.PromotionalPrice.LessThan(p.Price)
}

// Snapshot returns the read-only view used when a product is placed in a cart.
func (p *Product) Snapshot() *ProductSnapshot {
	fields := make(map[string]string, len(p.CustomFields))
	for k, v := range p.CustomFields {
		fields[k] = v
	}
	var promo *decimal.Decimal
	if p.PromotionalPrice != nil {
		v := *p.PromotionalPrice
		promo = &v
	}
	return &ProductSnapshot{
		ID:               p.ID,
		TenantID:         p.TenantID,
		Name:             p.Name,
		Price:            p.Price,
		PromotionalPrice: promo,
		Image:            p.ImageKey,
		CustomFields:     fields,
		Available:        p.IsActive(),
	}
}

// productCode is a SKU: letters, digits, underscores and hyphens.
var productCode = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

func validateProductCode(code string) error {
	switch {
	case code == "":
		return shared.NewDomainError("INVALID_CODE", "Product code is required")
	case len(code) > 50:
		return shared.NewDomainError("INVALID_CODE", "Product code is longer than 50 characters")
	case !productCode.MatchString(code):
		return shared.NewDomainError("INVALID_CODE", "Product code may only use letters, digits, '_' and '-'")
	}
	return nil
}

func validateProductName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return shared.NewDomainError("INVALID_NAME", "Product name is required")
	case len(name) > 200:
		return shared.NewDomainError("INVALID_NAME", "Product name is longer than 200 characters")
	}
	return nil
}

// validatePrice accepts non-negative amounts in whole cents.
func validatePrice(price decimal.Decimal, label string) error {
	switch {
	case price.IsNegative():
		return shared.NewDomainError("INVALID_PRICE", label+" cannot be negative")
	case !price.Equal(price.Truncate(2)):
		return shared.NewDomainError("INVALID_PRICE", label+" cannot have more than 2 decimal places")
	}
	return nil
}
