package checkout

import (
	"context"
	"fmt"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderPlacedHandler logs placed orders and records order metrics.
type OrderPlacedHandler struct {
	metrics Metrics
	logger  *zap.Logger
}

// NewOrderPlacedHandler creates a new handler for OrderPlaced events.
func NewOrderPlacedHandler(metrics Metrics, logger *zap.Logger) *OrderPlacedHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderPlacedHandler{metrics: metrics, logger: logger}
}

// EventTypes returns the event types this handler is interested in.
func (h *OrderPlacedHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderPlaced}
}

// Handle processes an OrderPlacedEvent.
func (h *OrderPlacedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*trade.OrderPlacedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", trade.EventTypeOrderPlaced),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeOrderPlaced, event.EventType())
	}

	h.logger.Info("processing order placed event",
		zap.String("tenant_id", placed.TenantID().String()),
		zap.String("order_id", placed.OrderID.String()),
		zap.String("order_number", placed.OrderNumber),
		zap.Int("item_count", placed.ItemCount),
		zap.String("total_amount", placed.TotalAmount.StringFixed(2)),
	)

	h.metrics.RecordOrderPlaced(ctx, placed.TenantID(), placed.ItemCount, placed.TotalAmount)
	return nil
}
