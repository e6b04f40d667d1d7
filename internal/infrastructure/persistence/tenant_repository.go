package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// ErrDomainTaken is returned by Save when another store already claims the
// custom domain.
var ErrDomainTaken = shared.NewDomainError("DOMAIN_TAKEN", "Domain is already used by another store")

// GormTenantRepository stores merchant stores in the tenants table.
type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return r.first(ctx, "id", id)
}

func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	return r.firstBy(ctx, "code", identity.NormalizeTenantCode(code))
}

func (r *GormTenantRepository) FindByDomain(ctx context.Context, domain string) (*identity.Tenant, error) {
	return r.firstBy(ctx, "domain", strings.ToLower(strings.TrimSpace(domain)))
}

// firstBy never matches an empty key, so NULL domains stay unreachable.
func (r *GormTenantRepository) firstBy(ctx context.Context, column, key string) (*identity.Tenant, error) {
	if key == "" {
		return nil, shared.ErrNotFound
	}
	return r.first(ctx, column, key)
}

func (r *GormTenantRepository) first(ctx context.Context, column string, key any) (*identity.Tenant, error) {
	var row models.TenantModel
	err := r.db.WithContext(ctx).Where(map[string]any{column: key}).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, shared.ErrNotFound
	case err != nil:
		return nil, err
	}
	return row.ToDomain(), nil
}

// Save upserts the store row. Store codes are immutable, so a duplicate key
// here can only come from the custom domain index.
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	err := r.db.WithContext(ctx).Save(models.TenantModelFromDomain(tenant)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDomainTaken
	}
	return err
}

var _ identity.TenantRepository = (*GormTenantRepository)(nil)
