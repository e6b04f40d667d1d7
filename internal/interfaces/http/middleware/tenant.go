package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Tenant context keys.
const (
	TenantIDKey     = "tenant_id"
	TenantCodeKey   = "tenant_code"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantFinder resolves a storefront request to a tenant.
// persistence.GormTenantRepository satisfies it.
type TenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error)
	FindByCode(ctx context.Context, code string) (*identity.Tenant, error)
	FindByDomain(ctx context.Context, domain string) (*identity.Tenant, error)
}

// StorefrontTenantConfig holds configuration for storefront tenant resolution.
type StorefrontTenantConfig struct {
	Finder TenantFinder
	// BaseDomain is the parent of all tenant subdomains, e.g. "shop.example".
	BaseDomain string
	// HeaderEnabled allows X-Tenant-ID to select a tenant by id.
	HeaderEnabled bool
	Logger        *zap.Logger
}

// StorefrontTenant resolves the tenant of a public storefront request.
// Resolution order: X-Tenant-ID header > <code>.<base_domain> > custom domain.
// Unknown and inactive tenants both answer 404.
func StorefrontTenant(cfg StorefrontTenantConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		tenant, method, err := resolveTenant(ctx, cfg, c.GetHeader(TenantHeaderKey), c.Request.Host)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) || errors.Is(err, errNoTenant) {
				abortWithError(c, http.StatusNotFound, dto.ErrCodeNotFound, "Store not found")
				return
			}
			if errors.Is(err, errBadTenantHeader) {
				abortWithError(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid tenant ID format")
				return
			}
			log.Error("Tenant resolution failed", zap.String("host", c.Request.Host), zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
			return
		}
		if !tenant.IsActive() {
			abortWithError(c, http.StatusNotFound, dto.ErrCodeNotFound, "Store not found")
			return
		}

		setTenant(c, tenant.ID, tenant.Code)
		log.Debug("Tenant identified",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("method", method),
		)
		c.Next()
	}
}

var (
	errNoTenant        = errors.New("no tenant in request")
	errBadTenantHeader = errors.New("malformed tenant header")
)

func resolveTenant(ctx context.Context, cfg StorefrontTenantConfig, header, host string) (*identity.Tenant, string, error) {
	if cfg.HeaderEnabled && header != "" {
		id, err := uuid.Parse(header)
		if err != nil {
			return nil, "", errBadTenantHeader
		}
		t, err := cfg.Finder.FindByID(ctx, id)
		return t, "header", err
	}

	hostname := stripPort(host)
	if code := extractTenantFromSubdomain(hostname, cfg.BaseDomain); code != "" {
		t, err := cfg.Finder.FindByCode(ctx, code)
		return t, "subdomain", err
	}
	if hostname != "" && !isBaseDomain(hostname, cfg.BaseDomain) {
		t, err := cfg.Finder.FindByDomain(ctx, strings.ToLower(hostname))
		return t, "domain", err
	}
	return nil, "", errNoTenant
}

// extractTenantFromSubdomain extracts the tenant code from a hostname,
// e.g. "acme.shop.example" with baseDomain "shop.example" returns "acme".
func extractTenantFromSubdomain(hostname, baseDomain string) string {
	if baseDomain == "" {
		return ""
	}
	hostname = strings.ToLower(hostname)
	subdomain, ok := strings.CutSuffix(hostname, "."+strings.ToLower(baseDomain))
	if !ok || subdomain == "" || subdomain == "www" {
		return ""
	}
	// Multi-level subdomains resolve to the left-most label
	parts := strings.Split(subdomain, ".")
	return parts[0]
}

func isBaseDomain(hostname, baseDomain string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == strings.ToLower(baseDomain) || hostname == "www."+strings.ToLower(baseDomain)
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func setTenant(c *gin.Context, tenantID uuid.UUID, code string) {
	c.Set(TenantIDKey, tenantID)
	if code != "" {
		c.Set(TenantCodeKey, code)
	}
	c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
}

// GetTenantID retrieves the tenant resolved for this request.
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(TenantIDKey); exists {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GetTenantCode retrieves the tenant code from gin.Context.
func GetTenantCode(c *gin.Context) string {
	return c.GetString(TenantCodeKey)
}

// abortWithError answers with the standard error envelope.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.Fail(code, message, GetRequestID(c)))
}
