package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.EventEnvelope
}

func newTestEvent(eventType string, tenantID uuid.UUID) *testEvent {
	return &testEvent{
		EventEnvelope: shared.NewEventEnvelope(eventType, shared.Subject{Type: "Order", ID: uuid.New()}, tenantID),
	}
}

type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panicMsg   string
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	placed := newTestHandler("OrderPlaced")
	all := newTestHandler()
	bus.Subscribe(placed)
	bus.Subscribe(all)

	tenantID := uuid.New()
	err := bus.Publish(context.Background(),
		newTestEvent("OrderPlaced", tenantID),
		newTestEvent("OrderStatusChanged", tenantID),
	)

	require.NoError(t, err)
	assert.Equal(t, 1, placed.count())
	assert.Equal(t, 2, all.count())
	assert.Equal(t, BusStats{Published: 2, Delivered: 3}, bus.Stats())
}

func TestInMemoryEventBus_FailingHandlerIsIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("OrderPlaced")
	failing.err = errors.New("boom")
	panicking := newTestHandler("OrderPlaced")
	panicking.panicMsg = "nil map"
	healthy := newTestHandler("OrderPlaced")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("OrderPlaced", uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, int64(2), bus.Stats().Failed)
	assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler("OrderPlaced")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("OrderPlaced", uuid.New()))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("OrderPlaced", uuid.New()))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_AsyncDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.IsRunning())

	handler := newTestHandler("OrderPlaced")
	bus.Subscribe(handler)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(ctx, newTestEvent("OrderPlaced", uuid.New())))
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))

	assert.False(t, bus.IsRunning())
	assert.Equal(t, 10, handler.count())
	assert.Equal(t, int64(10), bus.Stats().Delivered)
}
