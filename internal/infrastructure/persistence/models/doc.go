// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain stays free of ORM
// concerns; each model converts to and from its aggregate with ToDomain and
// FromDomain.
//
//   - base.go: shared columns (ID, timestamps, version, tenant)
//   - catalog.go: products
//   - trade.go: orders and order items
//   - identity.go: tenants
package models
