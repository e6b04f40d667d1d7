package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
)

// UpdateProfileRequest replaces the merchant-editable store settings.
// Omitted optional fields are cleared.
type UpdateProfileRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=200"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email,max=200"`
	ContactPhone string `json:"contact_phone" binding:"max=50"`
	LogoURL      string `json:"logo_url" binding:"omitempty,url,max=500"`
	Domain       string `json:"domain" binding:"omitempty,hostname,max=253"`
}

// ChangeStatusRequest opens or closes the storefront. Suspension is an
// operator action and is not accepted here.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// ProfileResponse is the back-office view of a store.
type ProfileResponse struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	LogoURL      string    `json:"logo_url,omitempty"`
	Domain       string    `json:"domain,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicProfileResponse is what shoppers see about a store.
type PublicProfileResponse struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
}

func toProfileResponse(t *identity.Tenant) *ProfileResponse {
	return &ProfileResponse{
		ID:           t.ID,
		Code:         t.Code,
		Name:         t.Name,
		Status:       string(t.Status),
		ContactEmail: t.ContactEmail,
		ContactPhone: t.ContactPhone,
		LogoURL:      t.LogoURL,
		Domain:       t.Domain,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toPublicProfile(t *identity.Tenant) *PublicProfileResponse {
	return &PublicProfileResponse{
		Code:         t.Code,
		Name:         t.Name,
		ContactEmail: t.ContactEmail,
		ContactPhone: t.ContactPhone,
		LogoURL:      t.LogoURL,
	}
}
