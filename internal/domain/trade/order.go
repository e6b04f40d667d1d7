package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a storefront order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus.
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusCompleted || target == OrderStatusCancelled
	case OrderStatusCompleted, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// OrderItem is a persisted order line.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	SortOrder   int
}

// Order is a placed storefront order.
// Items and amounts are fixed at placement; only the status moves afterwards.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	Notes           string
	Status          OrderStatus
	ConfirmedAt     *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// NewOrderFromDraft creates a pending order from a validated draft.
func NewOrderFromDraft(tenantID uuid.UUID, orderNumber string, draft *OrderDraft) (*Order, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	order := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerName:        draft.CustomerName,
		CustomerEmail:       draft.CustomerEmail,
		CustomerPhone:       draft.CustomerPhone,
		CustomerAddress:     draft.CustomerAddress,
		TotalAmount:         draft.TotalAmount,
		Notes:               draft.Notes,
		Status:              OrderStatusPending,
	}

	order.Items = make([]OrderItem, len(draft.Items))
	for i, item := range draft.Items {
		order.Items[i] = OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			SortOrder:   i,
		}
	}

	order.RaiseEvent(NewOrderPlacedEvent(order))

	return order, nil
}

// Confirm moves a pending order to confirmed.
func (o *Order) Confirm() error {
	if !o.Status.CanTransitionTo(OrderStatusConfirmed) {
		return shared.NewDomainError("INVALID_STATE", "Only pending orders can be confirmed")
	}

	now := time.Now()
	o.changeStatus(OrderStatusConfirmed)
	o.ConfirmedAt = &now

	return nil
}

// Complete moves a confirmed order to completed.
func (o *Order) Complete() error {
	if !o.Status.CanTransitionTo(OrderStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", "Only confirmed orders can be completed")
	}

	now := time.Now()
	o.changeStatus(OrderStatusCompleted)
	o.CompletedAt = &now

	return nil
}

// Cancel cancels a pending or confirmed order.
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", "Order cannot be cancelled in its current status")
	}
	if len(reason) > 500 {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason cannot exceed 500 characters")
	}

	now := time.Now()
	o.changeStatus(OrderStatusCancelled)
	o.CancelledAt = &now
	o.CancelReason = reason

	return nil
}

// TransitionTo applies the status change named by target.
func (o *Order) TransitionTo(target OrderStatus, reason string) error {
	switch target {
	case OrderStatusConfirmed:
		return o.Confirm()
	case OrderStatusCompleted:
		return o.Complete()
	case OrderStatusCancelled:
		return o.Cancel(reason)
	}
	return shared.NewDomainError("INVALID_STATUS", "Unsupported order status: "+string(target))
}

func (o *Order) changeStatus(target OrderStatus) {
	old := o.Status
	o.Status = target
	o.IncrementVersion()
	o.RaiseEvent(NewOrderStatusChangedEvent(o, old, target))
}

// ItemCount returns the total number of units ordered.
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// IsTerminal returns true if the order can no longer change status.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// Record returns the acknowledgement handed back to the submitter.
func (o *Order) Record() *OrderRecord {
	return &OrderRecord{
		ID:          o.ID,
		TenantID:    o.TenantID,
		OrderNumber: o.OrderNumber,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	}
}
