package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// storedCart is the JSON document kept per session.
type storedCart struct {
	TenantID  uuid.UUID    `json:"tenant_id"`
	SessionID string       `json:"session_id"`
	UpdatedAt time.Time    `json:"updated_at"`
	Lines     []storedLine `json:"lines"`
}

type storedLine struct {
	ProductID        uuid.UUID         `json:"product_id"`
	Name             string            `json:"name"`
	Image            string            `json:"image,omitempty"`
	ListPrice        decimal.Decimal   `json:"list_price"`
	PromotionalPrice *decimal.Decimal  `json:"promotional_price,omitempty"`
	Quantity         int               `json:"quantity"`
	CustomFields     map[string]string `json:"custom_fields,omitempty"`
}

func encodeCart(c *cart.Cart) ([]byte, error) {
	doc := storedCart{
		TenantID:  c.TenantID,
		SessionID: c.SessionID,
		UpdatedAt: c.UpdatedAt,
	}
	for _, l := range c.Lines() {
		doc.Lines = append(doc.Lines, storedLine{
			ProductID:        l.ProductID,
			Name:             l.Name,
			Image:            l.Image,
			ListPrice:        l.ListPrice,
			PromotionalPrice: l.PromotionalPrice,
			Quantity:         l.Quantity,
			CustomFields:     l.CustomFields,
		})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

func decodeCart(data []byte) (*cart.Cart, error) {
	var doc storedCart
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	lines := make([]cart.Line, len(doc.Lines))
	for i, l := range doc.Lines {
		lines[i] = cart.Line{
			ProductID:        l.ProductID,
			Name:             l.Name,
			Image:            l.Image,
			ListPrice:        l.ListPrice,
			PromotionalPrice: l.PromotionalPrice,
			Quantity:         l.Quantity,
			CustomFields:     l.CustomFields,
		}
	}
	return cart.Restore(doc.TenantID, doc.SessionID, lines, doc.UpdatedAt), nil
}

func cartKey(tenantID uuid.UUID, sessionID string) string {
	return cartKeyPrefix + tenantID.String() + ":" + sessionID
}
