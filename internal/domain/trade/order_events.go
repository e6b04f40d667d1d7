package trade

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant.
const AggregateTypeOrder = "Order"

// Event type constants.
const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

func orderEnvelope(eventType string, o *Order) shared.EventEnvelope {
	return shared.NewEventEnvelope(eventType, shared.Subject{Type: AggregateTypeOrder, ID: o.ID}, o.TenantID)
}

// OrderItemInfo represents item information for events.
type OrderItemInfo struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderPlacedEvent is raised when a shopper's order is stored.
type OrderPlacedEvent struct {
	shared.EventEnvelope
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	Items        []OrderItemInfo `json:"items"`
	ItemCount    int             `json:"item_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent.
func NewOrderPlacedEvent(order *Order) *OrderPlacedEvent {
	items := make([]OrderItemInfo, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemInfo{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
	}
	return &OrderPlacedEvent{
		EventEnvelope: orderEnvelope(EventTypeOrderPlaced, order),
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		Items:         items,
		ItemCount:     order.ItemCount(),
		TotalAmount:   order.TotalAmount,
	}
}

// OrderStatusChangedEvent is raised when a merchant moves an order along.
type OrderStatusChangedEvent struct {
	shared.EventEnvelope
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	OldStatus   OrderStatus `json:"old_status"`
	NewStatus   OrderStatus `json:"new_status"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent.
func NewOrderStatusChangedEvent(order *Order, oldStatus, newStatus OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		EventEnvelope: orderEnvelope(EventTypeOrderStatusChanged, order),
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
	}
}
