// Package testutil holds helpers shared by the integration suites.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/require"
)

// EventRecorder is an event handler that keeps what it receives.
type EventRecorder struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewEventRecorder subscribes to eventTypes.
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{eventTypes: eventTypes}
}

func (r *EventRecorder) EventTypes() []string {
	return r.eventTypes
}

func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = append(r.handled, event)
	return r.err
}

// Handled returns a copy of the recorded events in arrival order.
func (r *EventRecorder) Handled() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.handled))
	copy(out, r.handled)
	return out
}

func (r *EventRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handled)
}

// FailWith makes Handle return err from now on.
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// HandledAs returns the recorded events of type T.
func HandledAs[T shared.DomainEvent](r *EventRecorder) []T {
	var out []T
	for _, e := range r.Handled() {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// RequireEventCount waits for async dispatch to deliver n events.
func RequireEventCount(t *testing.T, r *EventRecorder, n int, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool { return r.Count() >= n }, timeout, 10*time.Millisecond,
		"expected %d events, got %d", n, r.Count())
}
