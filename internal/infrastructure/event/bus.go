package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// BusStats is a snapshot of dispatch counters.
type BusStats struct {
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
}

// InMemoryEventBus implements shared.EventBus with in-process pub/sub.
// A failing handler never fails the publisher; the error is logged and counted.
type InMemoryEventBus struct {
	routes   *routes
	logger   *zap.Logger
	async    bool
	running  atomic.Bool
	wg       sync.WaitGroup

	published atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
}

// BusOption configures an InMemoryEventBus.
type BusOption func(*InMemoryEventBus)

// WithAsyncDispatch runs handlers on their own goroutines.
// Stop waits for in-flight handlers.
func WithAsyncDispatch() BusOption {
	return func(b *InMemoryEventBus) {
		b.async = true
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(log *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &InMemoryEventBus{
		routes:   newRoutes(),
		logger:   log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands every event to the handlers registered for its type.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		b.published.Add(1)
		for _, handler := range b.routes.lookup(event.EventType()) {
			if !b.async {
				b.dispatch(ctx, handler, event)
				continue
			}
			b.wg.Add(1)
			go func(h shared.EventHandler, e shared.DomainEvent) {
				defer b.wg.Done()
				b.dispatch(context.WithoutCancel(ctx), h, e)
			}(handler, event)
		}
	}
	return nil
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.routes.add(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler.
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.routes.remove(handler)
}

// Start marks the bus as running.
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.running.Store(true)
	b.logger.Info("Event bus started", zap.Bool("async", b.async))
	return nil
}

// Stop waits for in-flight asynchronous handlers or for ctx to end.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

// IsRunning reports whether Start was called without a later Stop.
func (b *InMemoryEventBus) IsRunning() bool {
	return b.running.Load()
}

// Stats returns the dispatch counters.
func (b *InMemoryEventBus) Stats() BusStats {
	return BusStats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Failed:    b.failed.Load(),
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) {
	if err := b.safeHandle(ctx, handler, event); err != nil {
		b.failed.Add(1)
		logger.Enrich(ctx, b.logger).Error("Event handler failed",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.String("aggregate_id", event.AggregateID().String()),
			zap.Error(err),
		)
		return
	}
	b.delivered.Add(1)
}

func (b *InMemoryEventBus) safeHandle(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
