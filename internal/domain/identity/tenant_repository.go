package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository stores merchant stores. Lookups return
// shared.ErrNotFound for unknown stores, whatever their status.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	// FindByCode looks a store up by its subdomain label.
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	// FindByDomain looks a store up by its custom host.
	FindByDomain(ctx context.Context, domain string) (*Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
}
