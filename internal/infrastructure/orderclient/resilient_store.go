// Package orderclient guards the call that hands an order draft to the
// order store.
package orderclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Defaults applied when Config leaves a field at zero.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxFailures = uint32(5)
	DefaultOpenTimeout = 30 * time.Second
)

// ErrCircuitOpen is returned without calling the store while the breaker is open.
var ErrCircuitOpen = errors.New("order store circuit open")

// Config holds the timeout and breaker settings.
type Config struct {
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// ResilientOrderStore decorates a trade.OrderStore with a per-call timeout
// and a circuit breaker. Calls are never retried.
type ResilientOrderStore struct {
	inner   trade.OrderStore
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*trade.OrderRecord]
	logger  *zap.Logger
}

// NewResilientOrderStore wraps inner.
func NewResilientOrderStore(inner trade.OrderStore, cfg Config, logger *zap.Logger) *ResilientOrderStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ResilientOrderStore{
		inner:   inner,
		timeout: cfg.Timeout,
		logger:  logger,
	}
	s.breaker = gobreaker.NewCircuitBreaker[*trade.OrderRecord](gobreaker.Settings{
		Name:        "order-store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || trade.IsValidationError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

// CreateOrder forwards the draft to the inner store.
func (s *ResilientOrderStore) CreateOrder(ctx context.Context, draft *trade.OrderDraft, tenantID uuid.UUID) (*trade.OrderRecord, error) {
	record, err := s.breaker.Execute(func() (*trade.OrderRecord, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		return s.inner.CreateOrder(callCtx, draft, tenantID)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case err != nil:
		return nil, err
	}
	return record, nil
}

// State returns the breaker state name.
func (s *ResilientOrderStore) State() string {
	return s.breaker.State().String()
}

var _ trade.OrderStore = (*ResilientOrderStore)(nil)
