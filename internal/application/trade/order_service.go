package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderService handles merchant operations on placed orders.
type OrderService struct {
	orderRepo      trade.OrderRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo trade.OrderRepository, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for status change events.
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves an order by ID.
func (s *OrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByOrderNumber retrieves an order by its number.
func (s *OrderService) GetByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, tenantID, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves a page of orders, newest first unless told otherwise.
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  map[string]any{},
	}
	if filter.Status != "" {
		status := trade.OrderStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+filter.Status)
		}
		domainFilter.Filters["status"] = string(status)
	}

	orders, err := s.orderRepo.List(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// UpdateStatus moves an order along pending → confirmed → completed, or
// cancels a pending or confirmed order.
func (s *OrderService) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionTo(trade.OrderStatus(req.Status), req.Reason); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// GetStatusSummary counts the tenant's orders per status.
func (s *OrderService) GetStatusSummary(ctx context.Context, tenantID uuid.UUID) (*OrderStatusSummary, error) {
	counts := make(map[trade.OrderStatus]int64, 4)
	for _, status := range []trade.OrderStatus{
		trade.OrderStatusPending,
		trade.OrderStatusConfirmed,
		trade.OrderStatusCompleted,
		trade.OrderStatusCancelled,
	} {
		n, err := s.orderRepo.CountByStatus(ctx, tenantID, status)
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}

	summary := &OrderStatusSummary{
		Pending:   counts[trade.OrderStatusPending],
		Confirmed: counts[trade.OrderStatusConfirmed],
		Completed: counts[trade.OrderStatusCompleted],
		Cancelled: counts[trade.OrderStatusCancelled],
	}
	summary.Total = summary.Pending + summary.Confirmed + summary.Completed + summary.Cancelled
	return summary, nil
}

func (s *OrderService) publish(ctx context.Context, order *trade.Order) {
	events := order.PendingEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish order events",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}
	order.MarkEventsPublished()
}
