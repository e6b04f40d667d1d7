package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"omitempty,max=9999"`
}

// UpdateQuantityRequest sets the absolute quantity of a cart line; 0 or less removes it.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"max=9999"`
}

// CheckoutRequest is the customer form submitted at checkout.
type CheckoutRequest struct {
	CustomerName  string `json:"customer_name" binding:"required,max=200"`
	CustomerEmail string `json:"customer_email" binding:"required,email,max=200"`
	CustomerPhone string `json:"customer_phone" binding:"omitempty,max=50"`
	Street        string `json:"street" binding:"required,max=200"`
	City          string `json:"city" binding:"required,max=100"`
	State         string `json:"state" binding:"omitempty,max=100"`
	Zip           string `json:"zip" binding:"omitempty,max=20"`
	Notes         string `json:"notes" binding:"omitempty,max=1000"`
}

// ToCustomerForm converts the request into the domain form.
func (r CheckoutRequest) ToCustomerForm() trade.CustomerForm {
	return trade.CustomerForm{
		Name:   r.CustomerName,
		Email:  r.CustomerEmail,
		Phone:  r.CustomerPhone,
		Street: r.Street,
		City:   r.City,
		State:  r.State,
		Zip:    r.Zip,
		Notes:  r.Notes,
	}
}

// CartLineResponse is one line of the cart as shown to the shopper.
type CartLineResponse struct {
	ProductID        uuid.UUID         `json:"product_id"`
	Name             string            `json:"name"`
	Image            string            `json:"image,omitempty"`
	ListPrice        decimal.Decimal   `json:"list_price"`
	PromotionalPrice *decimal.Decimal  `json:"promotional_price,omitempty"`
	UnitPrice        decimal.Decimal   `json:"unit_price"`
	Quantity         int               `json:"quantity"`
	LineTotal        decimal.Decimal   `json:"line_total"`
	CustomFields     map[string]string `json:"custom_fields,omitempty"`
}

// CartResponse is the cart with its derived totals.
type CartResponse struct {
	SessionID  string             `json:"session_id"`
	Items      []CartLineResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// PlaceOrderResponse acknowledges a placed order.
type PlaceOrderResponse struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	Message     string          `json:"message"`
}

// OrderPlacedMessage is shown to the shopper after a successful checkout.
const OrderPlacedMessage = "Order placed successfully"

// ToCartResponse renders a cart. Money is rounded to cents here and nowhere earlier.
func ToCartResponse(c *cart.Cart) CartResponse {
	lines := c.Lines()
	items := make([]CartLineResponse, len(lines))
	for i, l := range lines {
		var promo *decimal.Decimal
		if l.PromotionalPrice != nil {
			v := l.PromotionalPrice.Round(2)
			promo = &v
		}
		items[i] = CartLineResponse{
			ProductID:        l.ProductID,
			Name:             l.Name,
			Image:            l.Image,
			ListPrice:        l.ListPrice.Round(2),
			PromotionalPrice: promo,
			UnitPrice:        l.UnitPrice().Round(2),
			Quantity:         l.Quantity,
			LineTotal:        l.Subtotal().Round(2),
			CustomFields:     l.CustomFields,
		}
	}
	return CartResponse{
		SessionID:  c.SessionID,
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice().Round(2),
		UpdatedAt:  c.UpdatedAt,
	}
}
