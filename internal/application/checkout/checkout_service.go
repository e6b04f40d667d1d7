package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Checkout outcomes recorded in metrics.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation_failed"
	OutcomeFailed     = "failed"
	OutcomeInProgress = "in_progress"
)

// Metrics records checkout activity.
type Metrics interface {
	RecordCheckout(ctx context.Context, tenantID uuid.UUID, outcome string, duration time.Duration)
	RecordOrderPlaced(ctx context.Context, tenantID uuid.UUID, itemCount int, amount decimal.Decimal)
}

type noopMetrics struct{}

func (noopMetrics) RecordCheckout(context.Context, uuid.UUID, string, time.Duration) {}

func (noopMetrics) RecordOrderPlaced(context.Context, uuid.UUID, int, decimal.Decimal) {}

// CheckoutConfig holds checkout settings.
type CheckoutConfig struct {
	// LockTTL bounds how long a crashed checkout can hold a session's guard.
	LockTTL time.Duration
}

// DefaultCheckoutConfig returns the default configuration.
func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{LockTTL: 30 * time.Second}
}

// CheckoutService places orders for cart sessions.
type CheckoutService struct {
	carts   *CartService
	store   trade.OrderStore
	guard   shared.SubmissionGuard
	config  CheckoutConfig
	metrics Metrics
	logger  *zap.Logger
}

// CheckoutServiceOption configures a CheckoutService.
type CheckoutServiceOption func(*CheckoutService)

// WithMetrics records checkout metrics.
func WithMetrics(m Metrics) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithConfig overrides the default configuration.
func WithConfig(cfg CheckoutConfig) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if cfg.LockTTL > 0 {
			s.config = cfg
		}
	}
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	carts *CartService,
	store trade.OrderStore,
	guard shared.SubmissionGuard,
	logger *zap.Logger,
	opts ...CheckoutServiceOption,
) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CheckoutService{
		carts:   carts,
		store:   store,
		guard:   guard,
		config:  DefaultCheckoutConfig(),
		metrics: noopMetrics{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder submits the session's cart as an order.
// While the call is in flight no other checkout for the session can start
// and the cart cannot be changed. On success the cart is emptied; on any
// failure it is left as it was.
func (s *CheckoutService) PlaceOrder(ctx context.Context, tenantID uuid.UUID, sessionID string, req CheckoutRequest) (*PlaceOrderResponse, error) {
	start := time.Now()
	key := GuardKey(tenantID, sessionID)

	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "place_order",
		telemetry.TenantAttr(tenantID),
	)
	defer span.End()

	acquired, err := s.guard.Acquire(ctx, key, s.config.LockTTL)
	if err != nil {
		s.logger.Error("failed to acquire checkout guard", zap.String("key", key), zap.Error(err))
		s.metrics.RecordCheckout(ctx, tenantID, OutcomeFailed, time.Since(start))
		telemetry.RecordError(span, err)
		return nil, &SubmissionError{Cause: fmt.Errorf("acquire checkout guard: %w", err)}
	}
	if !acquired {
		s.metrics.RecordCheckout(ctx, tenantID, OutcomeInProgress, time.Since(start))
		return nil, ErrSubmissionInProgress
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("failed to release checkout guard", zap.String("key", key), zap.Error(err))
		}
	}()

	if err := s.carts.awaitWrites(ctx, tenantID, sessionID); err != nil {
		s.metrics.RecordCheckout(ctx, tenantID, OutcomeFailed, time.Since(start))
		telemetry.RecordError(span, err)
		return nil, &SubmissionError{Cause: fmt.Errorf("wait for cart writes: %w", err)}
	}

	var result *SubmissionResult
	err = s.carts.withCart(ctx, tenantID, sessionID, func(c *cart.Cart) (bool, error) {
		submission := NewSubmission(s.store, s.logger)
		submission.OnTransition(func(from, to SubmissionState) {
			telemetry.RecordTransition(span, "submission", from.String(), to.String())
		})
		res, err := submission.Submit(ctx, c, req.ToCustomerForm())
		if err != nil {
			return false, err
		}
		result = res
		return true, nil
	})

	switch {
	case result != nil:
		// The order exists even if clearing the stored cart failed.
		if err != nil {
			s.logger.Error("order placed but cart was not cleared",
				zap.String("order_number", result.Record.OrderNumber),
				zap.Error(err),
			)
		}
	case trade.IsValidationError(err):
		s.metrics.RecordCheckout(ctx, tenantID, OutcomeValidation, time.Since(start))
		return nil, err
	case errors.Is(err, ErrSubmissionInProgress):
		s.metrics.RecordCheckout(ctx, tenantID, OutcomeInProgress, time.Since(start))
		return nil, err
	default:
		s.metrics.RecordCheckout(ctx, tenantID, OutcomeFailed, time.Since(start))
		telemetry.RecordError(span, err)
		if !IsSubmissionError(err) {
			err = &SubmissionError{Cause: err}
		}
		return nil, err
	}

	s.metrics.RecordCheckout(ctx, tenantID, OutcomeSuccess, time.Since(start))
	span.SetAttributes(telemetry.OrderAttrs(
		result.Record.ID, result.Record.OrderNumber, result.Draft.ItemCount(), result.Draft.TotalAmount,
	)...)
	s.logger.Info("order placed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", result.Record.ID.String()),
		zap.String("order_number", result.Record.OrderNumber),
	)

	return &PlaceOrderResponse{
		OrderID:     result.Record.ID,
		OrderNumber: result.Record.OrderNumber,
		TotalAmount: result.Draft.TotalAmount,
		ItemCount:   result.Draft.ItemCount(),
		Message:     OrderPlacedMessage,
	}, nil
}

// GuardKey names the checkout guard of a cart session.
func GuardKey(tenantID uuid.UUID, sessionID string) string {
	return "checkout:" + tenantID.String() + ":" + sessionID
}
