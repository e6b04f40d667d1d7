package trade

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Validation errors raised while composing an order.
var (
	ErrEmptyCart              = shared.NewDomainError("EMPTY_CART", "Cannot place an order with an empty cart")
	ErrMissingCustomerName    = shared.NewDomainError("MISSING_CUSTOMER_NAME", "Customer name is required")
	ErrMissingCustomerAddress = shared.NewDomainError("MISSING_CUSTOMER_ADDRESS", "Customer street and city are required")
)

var errPriceNotInCents = shared.NewDomainError(shared.ErrValidation.Code, "Cart prices must be whole cents")

var validationCodes = map[string]struct{}{
	shared.ErrValidation.Code:      {},
	ErrEmptyCart.Code:              {},
	ErrMissingCustomerName.Code:    {},
	ErrMissingCustomerAddress.Code: {},
}

// IsValidationError reports whether err means the order was refused before
// it could be submitted.
func IsValidationError(err error) bool {
	_, ok := validationCodes[shared.CodeOf(err)]
	return ok
}

// CustomerForm holds what the shopper typed at checkout.
type CustomerForm struct {
	Name   string
	Email  string
	Phone  string
	Street string
	City   string
	State  string
	Zip    string
	Notes  string
}

// OrderDraftItem is one order line derived from a cart line.
type OrderDraftItem struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// OrderDraft is the order-creation request. It is built fresh for every
// submission attempt and never mutated afterwards.
type OrderDraft struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	Items           []OrderDraftItem
	TotalAmount     decimal.Decimal
	Notes           string
}

// BuildOrderPayload turns the cart and the checkout form into an OrderDraft.
// Unit prices are the effective prices in cents, each line total is unit
// price times quantity, and TotalAmount is their sum. A cart whose total
// does not come out the same is refused.
func BuildOrderPayload(c *cart.Cart, form CustomerForm) (*OrderDraft, error) {
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	name := strings.TrimSpace(form.Name)
	if name == "" {
		return nil, ErrMissingCustomerName
	}

	address, err := valueobject.NewAddress(form.Street, form.City, form.State, form.Zip)
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrValidation.Code, err.Error())
	}
	if !address.IsDeliverable() {
		return nil, ErrMissingCustomerAddress
	}

	lines := c.Lines()
	items := make([]OrderDraftItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		unit := l.UnitPrice().Round(2)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, OrderDraftItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
	}
	if !total.Equal(c.TotalPrice().Round(2)) {
		return nil, errPriceNotInCents
	}

	return &OrderDraft{
		CustomerName:    name,
		CustomerEmail:   strings.TrimSpace(form.Email),
		CustomerPhone:   strings.TrimSpace(form.Phone),
		CustomerAddress: address.Format(),
		Items:           items,
		TotalAmount:     total,
		Notes:           strings.TrimSpace(form.Notes),
	}, nil
}

// Validate checks a draft received across a boundary before it is stored.
func (d *OrderDraft) Validate() error {
	if d == nil || len(d.Items) == 0 {
		return ErrEmptyCart
	}
	if strings.TrimSpace(d.CustomerName) == "" {
		return ErrMissingCustomerName
	}
	if strings.TrimSpace(d.CustomerAddress) == "" {
		return ErrMissingCustomerAddress
	}
	seen := make(map[uuid.UUID]struct{}, len(d.Items))
	sum := decimal.Zero
	for _, item := range d.Items {
		if item.ProductID == uuid.Nil {
			return shared.NewDomainError(shared.ErrValidation.Code, "Order item is missing a product")
		}
		if _, dup := seen[item.ProductID]; dup {
			return shared.NewDomainError(shared.ErrValidation.Code, "Order items must not repeat a product")
		}
		seen[item.ProductID] = struct{}{}
		if item.Quantity < 1 {
			return shared.NewDomainError(shared.ErrValidation.Code, "Order item quantity must be at least 1")
		}
		if item.UnitPrice.IsNegative() || item.LineTotal.IsNegative() {
			return shared.NewDomainError(shared.ErrValidation.Code, "Order item prices cannot be negative")
		}
		if !item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			return shared.NewDomainError(shared.ErrValidation.Code, "Order item total must equal unit price times quantity")
		}
		sum = sum.Add(item.LineTotal)
	}
	if d.TotalAmount.IsNegative() {
		return shared.NewDomainError(shared.ErrValidation.Code, "Order total cannot be negative")
	}
	if !d.TotalAmount.Equal(sum) {
		return shared.NewDomainError(shared.ErrValidation.Code, "Order total must equal the sum of its items")
	}
	return nil
}

// ItemCount returns the number of units across all items.
func (d *OrderDraft) ItemCount() int {
	n := 0
	for _, item := range d.Items {
		n += item.Quantity
	}
	return n
}
