package identity

import (
	"fmt"
	"strings"

	"github.com/shopfront/backend/internal/domain/shared"
)

// TenantStatus is the lifecycle state of a store. Only active stores are
// reachable from the storefront.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended"
)

// IsValid reports whether s is a known status.
func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusActive, TenantStatusInactive, TenantStatusSuspended:
		return true
	}
	return false
}

// Tenant is one merchant store. Code doubles as the storefront subdomain.
type Tenant struct {
	shared.BaseAggregateRoot
	Code         string
	Name         string
	Status       TenantStatus
	ContactEmail string
	ContactPhone string
	LogoURL      string
	// Domain is an optional custom storefront host, stored lowercase.
	Domain string
}

// StoreProfile is the merchant-editable part of a store.
type StoreProfile struct {
	Name         string
	ContactEmail string
	ContactPhone string
	LogoURL      string
	Domain       string
}

// NewTenant opens an active store.
func NewTenant(code, name string) (*Tenant, error) {
	code = NormalizeTenantCode(code)
	if err := checkCode(code); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := checkName(name); err != nil {
		return nil, err
	}

	t := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Status:            TenantStatusActive,
	}
	t.RaiseEvent(NewTenantCreatedEvent(t))
	return t, nil
}

// NormalizeTenantCode lowercases and trims a subdomain label.
func NormalizeTenantCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func (t *Tenant) IsActive() bool { return t.Status == TenantStatusActive }

// Profile returns the current editable settings.
func (t *Tenant) Profile() StoreProfile {
	return StoreProfile{
		Name:         t.Name,
		ContactEmail: t.ContactEmail,
		ContactPhone: t.ContactPhone,
		LogoURL:      t.LogoURL,
		Domain:       t.Domain,
	}
}

// ChangeProfile replaces the editable settings. Nothing changes unless
// every field is valid.
func (t *Tenant) ChangeProfile(p StoreProfile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.ContactEmail = strings.TrimSpace(p.ContactEmail)
	p.ContactPhone = strings.TrimSpace(p.ContactPhone)
	p.LogoURL = strings.TrimSpace(p.LogoURL)
	p.Domain = strings.ToLower(strings.TrimSpace(p.Domain))

	if err := checkName(p.Name); err != nil {
		return err
	}
	for _, lim := range []struct {
		value, code, field string
		max                int
	}{
		{p.ContactEmail, "INVALID_EMAIL", "Contact email", 200},
		{p.ContactPhone, "INVALID_PHONE", "Contact phone", 50},
		{p.LogoURL, "INVALID_URL", "Logo URL", 500},
		{p.Domain, "INVALID_DOMAIN", "Domain", 253},
	} {
		if len(lim.value) > lim.max {
			return shared.NewDomainError(lim.code, fmt.Sprintf("%s cannot exceed %d characters", lim.field, lim.max))
		}
	}
	if p.Domain != "" && strings.ContainsAny(p.Domain, " /:") {
		return shared.NewDomainError("INVALID_DOMAIN", "Domain must be a bare host name")
	}

	t.Name = p.Name
	t.ContactEmail = p.ContactEmail
	t.ContactPhone = p.ContactPhone
	t.LogoURL = p.LogoURL
	t.Domain = p.Domain
	t.IncrementVersion()
	return nil
}

// ChangeStatus moves the store to status. Setting the current status again
// is refused with ALREADY_<STATUS>.
func (t *Tenant) ChangeStatus(status TenantStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown store status %q", status))
	}
	if t.Status == status {
		return shared.NewDomainError("ALREADY_"+strings.ToUpper(string(status)), "Store is already "+string(status))
	}
	old := t.Status
	t.Status = status
	t.IncrementVersion()
	t.RaiseEvent(NewTenantStatusChangedEvent(t, old, status))
	return nil
}

// checkCode accepts a single DNS label.
func checkCode(code string) error {
	switch {
	case code == "":
		return shared.NewDomainError("INVALID_CODE", "Tenant code cannot be empty")
	case len(code) > 63:
		return shared.NewDomainError("INVALID_CODE", "Tenant code cannot exceed 63 characters")
	case strings.HasPrefix(code, "-") || strings.HasSuffix(code, "-"):
		return shared.NewDomainError("INVALID_CODE", "Tenant code cannot start or end with a hyphen")
	}
	if strings.IndexFunc(code, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-'
	}) >= 0 {
		return shared.NewDomainError("INVALID_CODE", "Tenant code can only contain lowercase letters, digits and hyphens")
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Store name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Store name cannot exceed 200 characters")
	}
	return nil
}
