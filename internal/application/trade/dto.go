package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// UpdateOrderStatusRequest moves an order to a new status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed completed cancelled"`
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter represents filter options for the order list.
type OrderListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at order_number total_amount customer_name status"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order line in API responses.
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	TenantID        uuid.UUID           `json:"tenant_id"`
	OrderNumber     string              `json:"order_number"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	CustomerPhone   string              `json:"customer_phone,omitempty"`
	CustomerAddress string              `json:"customer_address"`
	Items           []OrderItemResponse `json:"items"`
	ItemCount       int                 `json:"item_count"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Notes           string              `json:"notes,omitempty"`
	Status          string              `json:"status"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Version         int                 `json:"version"`
}

// OrderListItemResponse represents an order in list responses (less detail).
type OrderListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	ItemCount    int             `json:"item_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// OrderStatusSummary counts a tenant's orders per status.
type OrderStatusSummary struct {
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}

// ToOrderResponse converts a domain Order to a response DTO.
func ToOrderResponse(order *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.Round(2),
			LineTotal:   item.LineTotal.Round(2),
		}
	}

	return OrderResponse{
		ID:              order.ID,
		TenantID:        order.TenantID,
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		CustomerAddress: order.CustomerAddress,
		Items:           items,
		ItemCount:       order.ItemCount(),
		TotalAmount:     order.TotalAmount.Round(2),
		Notes:           order.Notes,
		Status:          string(order.Status),
		ConfirmedAt:     order.ConfirmedAt,
		CompletedAt:     order.CompletedAt,
		CancelledAt:     order.CancelledAt,
		CancelReason:    order.CancelReason,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Version:         order.Version,
	}
}

// ToOrderListItemResponses converts a slice of orders to list responses.
func ToOrderListItemResponses(orders []trade.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		responses[i] = OrderListItemResponse{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			CustomerName: o.CustomerName,
			ItemCount:    o.ItemCount(),
			TotalAmount:  o.TotalAmount.Round(2),
			Status:       string(o.Status),
			CreatedAt:    o.CreatedAt,
		}
	}
	return responses
}
