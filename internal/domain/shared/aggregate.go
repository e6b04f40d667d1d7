package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity gives an entity a fresh id, created and updated now.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseAggregateRoot adds an optimistic-lock version and the events raised
// since the aggregate was loaded.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
	pending []DomainEvent
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion is called on every state change.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.UpdatedAt = time.Now()
}

// RaiseEvent queues e until the aggregate is saved.
func (a *BaseAggregateRoot) RaiseEvent(e DomainEvent) {
	a.pending = append(a.pending, e)
}

// PendingEvents returns the events raised and not yet published.
func (a *BaseAggregateRoot) PendingEvents() []DomainEvent {
	return a.pending
}

// MarkEventsPublished forgets the pending events.
func (a *BaseAggregateRoot) MarkEventsPublished() {
	a.pending = nil
}

// TenantAggregateRoot is an aggregate owned by exactly one store.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot(), TenantID: tenantID}
}
