package models

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate.
type ProductModel struct {
	AggregateModel
	TenantID         uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_product_tenant_code,priority:1"`
	Code             string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_tenant_code,priority:2"`
	Name             string                `gorm:"type:varchar(200);not null"`
	Description      string                `gorm:"type:text"`
	Price            decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PromotionalPrice decimal.NullDecimal   `gorm:"type:decimal(18,4)"`
	ImageKey         string                `gorm:"type:varchar(500)"`
	CustomFields     StringMap             `gorm:"type:jsonb"`
	Status           catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	SortOrder        int                   `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM.
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		TenantAggregateRoot: tenantAggregateRoot(&m.AggregateModel, m.TenantID),
		Code:                m.Code,
		Name:                m.Name,
		Description:         m.Description,
		Price:               m.Price,
		ImageKey:            m.ImageKey,
		CustomFields:        map[string]string{},
		Status:              m.Status,
		SortOrder:           m.SortOrder,
	}
	if m.PromotionalPrice.Valid {
		promo := m.PromotionalPrice.Decimal
		p.PromotionalPrice = &promo
	}
	for k, v := range m.CustomFields {
		p.CustomFields[k] = v
	}
	return p
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.TenantID = p.TenantID
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.PromotionalPrice = decimal.NullDecimal{}
	if p.PromotionalPrice != nil {
		m.PromotionalPrice = decimal.NewNullDecimal(*p.PromotionalPrice)
	}
	m.ImageKey = p.ImageKey
	m.CustomFields = StringMap(p.CustomFields)
	m.Status = p.Status
	m.SortOrder = p.SortOrder
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ToSnapshot returns the catalog view a cart line is built from.
func (m *ProductModel) ToSnapshot() *catalog.ProductSnapshot {
	return m.ToDomain().Snapshot()
}
