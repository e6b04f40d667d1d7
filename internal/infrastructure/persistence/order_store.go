package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxOrderNumberAttempts bounds retries when two submissions race for the
// same order number.
const maxOrderNumberAttempts = 3

// GormOrderStore implements trade.OrderStore on the orders tables.
// Each draft becomes one pending order created atomically with its items.
type GormOrderStore struct {
	db        *gorm.DB
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// OrderStoreOption configures a GormOrderStore.
type OrderStoreOption func(*GormOrderStore)

// WithEventPublisher publishes OrderPlaced after the order is committed.
func WithEventPublisher(publisher shared.EventPublisher) OrderStoreOption {
	return func(s *GormOrderStore) {
		s.publisher = publisher
	}
}

// WithStoreLogger sets the logger used for publish failures.
func WithStoreLogger(logger *zap.Logger) OrderStoreOption {
	return func(s *GormOrderStore) {
		s.logger = logger
	}
}

// NewGormOrderStore creates a new GormOrderStore.
func NewGormOrderStore(db *gorm.DB, opts ...OrderStoreOption) *GormOrderStore {
	s := &GormOrderStore{
		db:     db,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder stores the draft as a pending order for the tenant.
func (s *GormOrderStore) CreateOrder(ctx context.Context, draft *trade.OrderDraft, tenantID uuid.UUID) (*trade.OrderRecord, error) {
	if draft == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order draft is required")
	}

	var (
		order *trade.Order
		err   error
	)
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order, err = s.createOnce(ctx, draft, tenantID)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.logger.Debug("Order number collision, retrying",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)
	return order.Record(), nil
}

func (s *GormOrderStore) createOnce(ctx context.Context, draft *trade.OrderDraft, tenantID uuid.UUID) (*trade.Order, error) {
	var order *trade.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := generateOrderNumber(tx, tenantID, s.now())
		if err != nil {
			return err
		}

		order, err = trade.NewOrderFromDraft(tenantID, number, draft)
		if err != nil {
			return err
		}

		return tx.Create(models.OrderModelFromDomain(order)).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *GormOrderStore) publishEvents(ctx context.Context, order *trade.Order) {
	events := order.PendingEvents()
	order.MarkEventsPublished()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
}

var _ trade.OrderStore = (*GormOrderStore)(nil)
