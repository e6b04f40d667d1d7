package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository serves both the admin catalog and the cart's
// product lookups from the products table.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ProductModel{}).Scopes(ForTenant(tenantID))
}

func (r *GormProductRepository) take(ctx context.Context, tenantID uuid.UUID, cond map[string]any) (*models.ProductModel, error) {
	var row models.ProductModel
	if err := r.scoped(ctx, tenantID).Where(cond).Take(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (r *GormProductRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	row, err := r.take(ctx, tenantID, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindByCode matches codes case-insensitively; they are stored uppercased.
func (r *GormProductRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	row, err := r.take(ctx, tenantID, map[string]any{"code": strings.ToUpper(code)})
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

func (r *GormProductRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := productList.paged(r.scoped(ctx, tenantID), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, *rows[i].ToDomain())
	}
	return products, nil
}

func (r *GormProductRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var n int64
	err := productList.filtered(r.scoped(ctx, tenantID), filter).Count(&n).Error
	return n, err
}

func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}

func (r *GormProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Scopes(ForTenant(tenantID)).Delete(&models.ProductModel{}, "id = ?", id)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) CodeTaken(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var n int64
	err := r.scoped(ctx, tenantID).Where("code = ?", strings.ToUpper(code)).Count(&n).Error
	return n > 0, err
}

// LookupProduct snapshots a product for the cart. Inactive products are
// returned too, marked unavailable.
func (r *GormProductRepository) LookupProduct(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.ProductSnapshot, error) {
	row, err := r.take(ctx, tenantID, map[string]any{"id": productID})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	return row.ToSnapshot(), nil
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.ProductLookup     = (*GormProductRepository)(nil)
)
