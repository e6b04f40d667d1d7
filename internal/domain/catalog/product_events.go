package catalog

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const AggregateTypeProduct = "Product"

const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductUpdated       = "ProductUpdated"
	EventTypeProductStatusChanged = "ProductStatusChanged"
	EventTypeProductPriceChanged  = "ProductPriceChanged"
	EventTypeProductDeleted       = "ProductDeleted"
)

// ProductRef identifies the product in every catalog event.
type ProductRef struct {
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
}

func productEnvelope(eventType string, p *Product) (shared.EventEnvelope, ProductRef) {
	env := shared.NewEventEnvelope(eventType, shared.Subject{Type: AggregateTypeProduct, ID: p.ID}, p.TenantID)
	return env, ProductRef{ProductID: p.ID, Code: p.Code}
}

type ProductCreatedEvent struct {
	shared.EventEnvelope
	ProductRef
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	env, ref := productEnvelope(EventTypeProductCreated, p)
	return &ProductCreatedEvent{EventEnvelope: env, ProductRef: ref, Name: p.Name, Price: p.Price}
}

// ProductUpdatedEvent covers descriptive changes: name, description,
// images and custom fields.
type ProductUpdatedEvent struct {
	shared.EventEnvelope
	ProductRef
	Name string `json:"name"`
}

func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	env, ref := productEnvelope(EventTypeProductUpdated, p)
	return &ProductUpdatedEvent{EventEnvelope: env, ProductRef: ref, Name: p.Name}
}

// ProductStatusChangedEvent is raised on activation and deactivation.
type ProductStatusChangedEvent struct {
	shared.EventEnvelope
	ProductRef
	OldStatus ProductStatus `json:"old_status"`
	NewStatus ProductStatus `json:"new_status"`
}

func NewProductStatusChangedEvent(p *Product, from, to ProductStatus) *ProductStatusChangedEvent {
	env, ref := productEnvelope(EventTypeProductStatusChanged, p)
	return &ProductStatusChangedEvent{EventEnvelope: env, ProductRef: ref, OldStatus: from, NewStatus: to}
}

// ProductPriceChangedEvent is raised when the list or promotional price
// changes, carrying the effective price before and after.
type ProductPriceChangedEvent struct {
	shared.EventEnvelope
	ProductRef
	Price             decimal.Decimal  `json:"price"`
	PromotionalPrice  *decimal.Decimal `json:"promotional_price,omitempty"`
	OldEffectivePrice decimal.Decimal  `json:"old_effective_price"`
	NewEffectivePrice decimal.Decimal  `json:"new_effective_price"`
}

func NewProductPriceChangedEvent(p *Product, oldEffective decimal.Decimal) *ProductPriceChangedEvent {
	env, ref := productEnvelope(EventTypeProductPriceChanged, p)
	return &ProductPriceChangedEvent{
		EventEnvelope:     env,
		ProductRef:        ref,
		Price:             p.Price,
		PromotionalPrice:  p.PromotionalPrice,
		OldEffectivePrice: oldEffective,
		NewEffectivePrice: p.EffectivePrice(),
	}
}

type ProductDeletedEvent struct {
	shared.EventEnvelope
	ProductRef
}

func NewProductDeletedEvent(p *Product) *ProductDeletedEvent {
	env, ref := productEnvelope(EventTypeProductDeleted, p)
	return &ProductDeletedEvent{EventEnvelope: env, ProductRef: ref}
}
