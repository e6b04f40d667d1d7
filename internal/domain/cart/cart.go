package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Line is one product in a cart. Display and price fields are copied from the
// catalog when the product is first added and are not refreshed afterwards.
type Line struct {
	ProductID        uuid.UUID
	Name             string
	Image            string
	ListPrice        decimal.Decimal
	PromotionalPrice *decimal.Decimal
	Quantity         int
	CustomFields     map[string]string
}

// UnitPrice returns the effective price of one unit.
func (l Line) UnitPrice() decimal.Decimal {
	return catalog.EffectivePrice(l.ListPrice, l.PromotionalPrice)
}

// Subtotal returns the unrounded unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	out := l
	if l.PromotionalPrice != nil {
		p := *l.PromotionalPrice
		out.PromotionalPrice = &p
	}
	if l.CustomFields != nil {
		out.CustomFields = make(map[string]string, len(l.CustomFields))
		for k, v := range l.CustomFields {
			out.CustomFields[k] = v
		}
	}
	return out
}

// Cart holds the lines of one browsing session in insertion order.
// There is at most one line per product and every line has quantity >= 1.
// A Cart is not safe for concurrent use; callers serialise access per session.
type Cart struct {
	TenantID  uuid.UUID
	SessionID string
	UpdatedAt time.Time
	lines     []Line
}

// New creates an empty cart for a session.
func New(tenantID uuid.UUID, sessionID string) *Cart {
	return &Cart{
		TenantID:  tenantID,
		SessionID: sessionID,
		UpdatedAt: time.Now(),
	}
}

// Restore rebuilds a cart from stored lines. Lines that break the cart
// invariants are dropped or merged in order.
func Restore(tenantID uuid.UUID, sessionID string, lines []Line, updatedAt time.Time) *Cart {
	c := &Cart{TenantID: tenantID, SessionID: sessionID, UpdatedAt: updatedAt}
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := c.indexOf(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l.clone())
	}
	return c
}

// AddItem adds quantity units of the product. An existing line for the
// product is incremented, otherwise a new line is appended. A quantity
// below 1 is treated as 1.
func (c *Cart) AddItem(product *catalog.ProductSnapshot, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	defer c.touch()

	if i := c.indexOf(product.ID); i >= 0 {
		c.lines[i].Quantity += quantity
		return
	}

	line := Line{
		ProductID:        product.ID,
		Name:             product.Name,
		Image:            product.Image,
		ListPrice:        product.Price,
		PromotionalPrice: product.PromotionalPrice,
		Quantity:         quantity,
		CustomFields:     product.CustomFields,
	}
	c.lines = append(c.lines, line.clone())
}

// RemoveItem deletes the line for productID. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.touch()
}

// UpdateQuantity sets the absolute quantity of an existing line.
// A quantity <= 0 removes the line; an absent product is a no-op.
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.lines[i].Quantity = quantity
	c.touch()
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.lines = nil
	c.touch()
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.clone()
	}
	return out
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID uuid.UUID) (Line, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return Line{}, false
	}
	return c.lines[i].clone(), true
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// TotalItems returns the sum of all line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice returns the unrounded sum of effective price times quantity.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
