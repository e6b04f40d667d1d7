package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore keeps carts keyed by tenant and session.
// Load returns an empty cart when the session has none.
// Save refreshes the expiry to ttl; Delete is idempotent.
type SessionStore interface {
	Load(ctx context.Context, tenantID uuid.UUID, sessionID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart, ttl time.Duration) error
	Delete(ctx context.Context, tenantID uuid.UUID, sessionID string) error
	Close() error
}
