package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderNumberPrefix is followed by the year and a five digit sequence.
const orderNumberPrefix = "ORD"

// GormOrderRepository keeps orders in the orders and order_items tables.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.OrderModel{}).Scopes(ForTenant(tenantID))
}

// withItems loads one order and its lines in their original order.
func (r *GormOrderRepository) withItems(ctx context.Context, tenantID uuid.UUID, cond map[string]any) (*trade.Order, error) {
	var row models.OrderModel
	err := r.scoped(ctx, tenantID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Where(cond).
		Take(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	return row.ToDomain(), nil
}

func (r *GormOrderRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*trade.Order, error) {
	return r.withItems(ctx, tenantID, map[string]any{"id": id})
}

func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*trade.Order, error) {
	return r.withItems(ctx, tenantID, map[string]any{"order_number": orderNumber})
}

// List leaves Items empty; callers that need lines use Get.
func (r *GormOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.Order, error) {
	var rows []models.OrderModel
	if err := orderList.paged(r.scoped(ctx, tenantID), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]trade.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, nil
}

func (r *GormOrderRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var n int64
	err := orderList.filtered(r.scoped(ctx, tenantID), filter).Count(&n).Error
	return n, err
}

func (r *GormOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status trade.OrderStatus) (int64, error) {
	var n int64
	err := r.scoped(ctx, tenantID).Where("status = ?", status).Count(&n).Error
	return n, err
}

// Save creates or updates an order with its items.
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return saveOrder(r.db.WithContext(ctx), order)
}

func saveOrder(db *gorm.DB, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Items).Error
	})
}

// SaveWithLock persists a status change. The aggregate has already bumped
// its version, so the stored row must still carry the previous one.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	expected := order.Version - 1

	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", order.TenantID, order.ID, expected).
		Updates(map[string]interface{}{
			"status":        order.Status,
			"confirmed_at":  order.ConfirmedAt,
			"completed_at":  order.CompletedAt,
			"cancelled_at":  order.CancelledAt,
			"cancel_reason": order.CancelReason,
			"notes":         order.Notes,
			"version":       order.Version,
			"updated_at":    order.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.scoped(ctx, order.TenantID).Where("id = ?", order.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// GenerateOrderNumber returns ORD-<year>-<seq>, seq being five digits
// counting up within the tenant and year (ORD-2026-00001).
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return generateOrderNumber(r.db.WithContext(ctx), tenantID, time.Now())
}

// maxNumberAttempts bounds the search for a free number past the latest one.
const maxNumberAttempts = 100

func generateOrderNumber(db *gorm.DB, tenantID uuid.UUID, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", orderNumberPrefix, now.Year())
	numbers := db.Model(&models.OrderModel{}).Scopes(ForTenant(tenantID))

	var latest []string
	if err := numbers.Session(&gorm.Session{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &latest).Error; err != nil {
		return "", err
	}

	seq := 1
	if len(latest) == 1 {
		if tail, ok := strings.CutPrefix(latest[0], prefix); ok {
			if n, err := strconv.Atoi(tail); err == nil {
				seq = n + 1
			}
		}
	}

	for range maxNumberAttempts {
		candidate := fmt.Sprintf("%s%05d", prefix, seq)
		var taken int64
		if err := numbers.Session(&gorm.Session{}).Where("order_number = ?", candidate).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return candidate, nil
		}
		seq++
	}
	return "", shared.NewDomainError("ORDER_NUMBER_EXHAUSTED", "Could not allocate a unique order number")
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)
