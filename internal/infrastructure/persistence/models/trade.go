package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	AggregateModel
	TenantID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_order_tenant_number,priority:1"`
	OrderNumber     string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_tenant_number,priority:2"`
	CustomerName    string            `gorm:"type:varchar(200);not null"`
	CustomerEmail   string            `gorm:"type:varchar(200)"`
	CustomerPhone   string            `gorm:"type:varchar(50)"`
	CustomerAddress string            `gorm:"type:varchar(500);not null"`
	Items           []OrderItemModel  `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Notes           string            `gorm:"type:text"`
	Status          trade.OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ConfirmedAt     *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for an order line.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SortOrder   int             `gorm:"not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		TenantAggregateRoot: tenantAggregateRoot(&m.AggregateModel, m.TenantID),
		OrderNumber:         m.OrderNumber,
		CustomerName:        m.CustomerName,
		CustomerEmail:       m.CustomerEmail,
		CustomerPhone:       m.CustomerPhone,
		CustomerAddress:     m.CustomerAddress,
		TotalAmount:         m.TotalAmount,
		Notes:               m.Notes,
		Status:              m.Status,
		ConfirmedAt:         m.ConfirmedAt,
		CompletedAt:         m.CompletedAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
	}
	order.Items = make([]trade.OrderItem, len(m.Items))
	for i, item := range m.Items {
		order.Items[i] = trade.OrderItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			SortOrder:   item.SortOrder,
		}
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.TenantID = o.TenantID
	m.OrderNumber = o.OrderNumber
	m.CustomerName = o.CustomerName
	m.CustomerEmail = o.CustomerEmail
	m.CustomerPhone = o.CustomerPhone
	m.CustomerAddress = o.CustomerAddress
	m.TotalAmount = o.TotalAmount
	m.Notes = o.Notes
	m.Status = o.Status
	m.ConfirmedAt = o.ConfirmedAt
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason

	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:          item.ID,
			OrderID:     o.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			SortOrder:   item.SortOrder,
			CreatedAt:   o.CreatedAt,
		}
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
