package models

import (
	"github.com/shopfront/backend/internal/domain/identity"
)

// TenantModel is the persistence model for the Tenant aggregate.
type TenantModel struct {
	AggregateModel
	Code         string                `gorm:"type:varchar(63);not null;uniqueIndex"`
	Name         string                `gorm:"type:varchar(200);not null"`
	Status       identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
	ContactEmail string                `gorm:"type:varchar(200)"`
	ContactPhone string                `gorm:"type:varchar(50)"`
	LogoURL      string                `gorm:"type:varchar(500)"`
	Domain       *string               `gorm:"type:varchar(253);uniqueIndex"`
}

// TableName returns the table name for GORM.
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant.
func (m *TenantModel) ToDomain() *identity.Tenant {
	t := &identity.Tenant{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Status:            m.Status,
		ContactEmail:      m.ContactEmail,
		ContactPhone:      m.ContactPhone,
		LogoURL:           m.LogoURL,
	}
	if m.Domain != nil {
		t.Domain = *m.Domain
	}
	return t
}

// FromDomain populates the persistence model from a domain Tenant.
// An empty custom domain is stored as NULL so the unique index ignores it.
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Code = t.Code
	m.Name = t.Name
	m.Status = t.Status
	m.ContactEmail = t.ContactEmail
	m.ContactPhone = t.ContactPhone
	m.LogoURL = t.LogoURL
	m.Domain = nil
	if t.Domain != "" {
		domain := t.Domain
		m.Domain = &domain
	}
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// AllModels lists every model for schema creation in tests and tooling.
func AllModels() []interface{} {
	return []interface{}{
		&TenantModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
	}
}
