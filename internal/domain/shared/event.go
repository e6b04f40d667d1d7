package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate and published after the
// aggregate has been stored.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// EventEnvelope is embedded by concrete events for the identifying fields
// every event shares.
type EventEnvelope struct {
	ID      uuid.UUID `json:"event_id"`
	Name    string    `json:"event_type"`
	At      time.Time `json:"occurred_at"`
	Subject Subject   `json:"aggregate"`
	Tenant  uuid.UUID `json:"tenant_id"`
}

// Subject names the aggregate an event is about.
type Subject struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// NewEventEnvelope stamps a new event of eventType about subject.
func NewEventEnvelope(eventType string, subject Subject, tenantID uuid.UUID) EventEnvelope {
	return EventEnvelope{
		ID:      uuid.New(),
		Name:    eventType,
		At:      time.Now(),
		Subject: subject,
		Tenant:  tenantID,
	}
}

func (e *EventEnvelope) EventID() uuid.UUID     { return e.ID }
func (e *EventEnvelope) EventType() string      { return e.Name }
func (e *EventEnvelope) OccurredAt() time.Time  { return e.At }
func (e *EventEnvelope) AggregateID() uuid.UUID { return e.Subject.ID }
func (e *EventEnvelope) AggregateType() string  { return e.Subject.Type }
func (e *EventEnvelope) TenantID() uuid.UUID    { return e.Tenant }

// EventHandler reacts to published events. EventTypes lists the types it
// wants; an empty list means every type.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher hands events to their subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is the process-wide publisher that handlers subscribe to.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
