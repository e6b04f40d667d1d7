package identity

import "github.com/shopfront/backend/internal/domain/shared"

const AggregateTypeTenant = "Tenant"

const (
	EventTypeTenantCreated       = "TenantCreated"
	EventTypeTenantStatusChanged = "TenantStatusChanged"
)

// A store is its own tenant, so its events carry its id twice.
func tenantEnvelope(eventType string, t *Tenant) shared.EventEnvelope {
	return shared.NewEventEnvelope(eventType, shared.Subject{Type: AggregateTypeTenant, ID: t.ID}, t.ID)
}

// TenantCreatedEvent announces a new store.
type TenantCreatedEvent struct {
	shared.EventEnvelope
	Code string `json:"code"`
	Name string `json:"name"`
}

func NewTenantCreatedEvent(t *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{EventEnvelope: tenantEnvelope(EventTypeTenantCreated, t), Code: t.Code, Name: t.Name}
}

// TenantStatusChangedEvent is raised on every store status change.
// Storefront resolution stops for anything but active.
type TenantStatusChangedEvent struct {
	shared.EventEnvelope
	Code      string       `json:"code"`
	OldStatus TenantStatus `json:"old_status"`
	NewStatus TenantStatus `json:"new_status"`
}

func NewTenantStatusChangedEvent(t *Tenant, from, to TenantStatus) *TenantStatusChangedEvent {
	return &TenantStatusChangedEvent{
		EventEnvelope: tenantEnvelope(EventTypeTenantStatusChanged, t),
		Code:          t.Code,
		OldStatus:     from,
		NewStatus:     to,
	}
}
