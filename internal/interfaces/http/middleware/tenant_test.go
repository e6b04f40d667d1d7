package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTenantFinder is a test implementation of TenantFinder.
type fakeTenantFinder struct {
	tenants []*identity.Tenant
	err     error
}

func (f *fakeTenantFinder) find(match func(*identity.Tenant) bool) (*identity.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.tenants {
		if match(t) {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeTenantFinder) FindByID(_ context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return f.find(func(t *identity.Tenant) bool { return t.ID == id })
}

func (f *fakeTenantFinder) FindByCode(_ context.Context, code string) (*identity.Tenant, error) {
	return f.find(func(t *identity.Tenant) bool { return t.Code == code })
}

func (f *fakeTenantFinder) FindByDomain(_ context.Context, domain string) (*identity.Tenant, error) {
	return f.find(func(t *identity.Tenant) bool { return t.Domain != "" && t.Domain == domain })
}

func newTenant(t *testing.T, code, domain string) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant(code, code+" store")
	require.NoError(t, err)
	if domain != "" {
		require.NoError(t, tenant.ChangeProfile(identity.StoreProfile{Name: tenant.Name, Domain: domain}))
	}
	return tenant
}

func tenantRouter(finder TenantFinder) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(StorefrontTenant(StorefrontTenantConfig{
		Finder:        finder,
		BaseDomain:    "shop.example",
		HeaderEnabled: true,
	}))
	router.GET("/test", func(c *gin.Context) {
		id, _ := GetTenantID(c)
		c.JSON(http.StatusOK, gin.H{"tenant_id": id.String(), "tenant_code": GetTenantCode(c)})
	})
	return router
}

func TestStorefrontTenant_Resolution(t *testing.T) {
	acme := newTenant(t, "acme", "")
	bolt := newTenant(t, "bolt", "www.boltshoes.com")
	finder := &fakeTenantFinder{tenants: []*identity.Tenant{acme, bolt}}
	router := tenantRouter(finder)

	tests := []struct {
		name       string
		host       string
		header     string
		expectedID uuid.UUID
	}{
		{"subdomain", "acme.shop.example", "", acme.ID},
		{"subdomain with port", "acme.shop.example:8080", "", acme.ID},
		{"subdomain is case insensitive", "ACME.Shop.Example", "", acme.ID},
		{"multi-level subdomain uses left-most label", "acme.eu.shop.example", "", acme.ID},
		{"custom domain", "www.boltshoes.com", "", bolt.ID},
		{"header wins over host", "acme.shop.example", bolt.ID.String(), bolt.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Host = tt.host
			if tt.header != "" {
				req.Header.Set(TenantHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedID.String(), body["tenant_id"])
		})
	}
}

func TestStorefrontTenant_Rejections(t *testing.T) {
	closed := newTenant(t, "closed", "")
	require.NoError(t, closed.ChangeStatus(identity.TenantStatusSuspended))
	router := tenantRouter(&fakeTenantFinder{tenants: []*identity.Tenant{closed}})

	tests := []struct {
		name           string
		host           string
		header         string
		expectedStatus int
		expectedCode   string
	}{
		{"unknown subdomain", "ghost.shop.example", "", http.StatusNotFound, dto.ErrCodeNotFound},
		{"inactive tenant", "closed.shop.example", "", http.StatusNotFound, dto.ErrCodeNotFound},
		{"bare base domain", "shop.example", "", http.StatusNotFound, dto.ErrCodeNotFound},
		{"www base domain", "www.shop.example", "", http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown tenant header", "shop.example", uuid.NewString(), http.StatusNotFound, dto.ErrCodeNotFound},
		{"malformed tenant header", "acme.shop.example", "not-a-uuid", http.StatusBadRequest, dto.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Host = tt.host
			if tt.header != "" {
				req.Header.Set(TenantHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestStorefrontTenant_LookupFailure(t *testing.T) {
	router := tenantRouter(&fakeTenantFinder{err: errors.New("connection reset")})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Host = "acme.shop.example"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestStorefrontTenant_HeaderDisabled(t *testing.T) {
	acme := newTenant(t, "acme", "")
	router := gin.New()
	router.Use(StorefrontTenant(StorefrontTenantConfig{
		Finder:     &fakeTenantFinder{tenants: []*identity.Tenant{acme}},
		BaseDomain: "shop.example",
	}))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, GetTenantCode(c)) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Host = "acme.shop.example"
	req.Header.Set(TenantHeaderKey, "not-a-uuid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", w.Body.String())
}

func TestExtractTenantFromSubdomain(t *testing.T) {
	tests := []struct {
		hostname string
		base     string
		expected string
	}{
		{"acme.shop.example", "shop.example", "acme"},
		{"www.shop.example", "shop.example", ""},
		{"shop.example", "shop.example", ""},
		{"acme.other.example", "shop.example", ""},
		{"acme.shop.example", "", ""},
		{"evilshop.example", "shop.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTenantFromSubdomain(tt.hostname, tt.base))
		})
	}
}

func TestGetTenantID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetTenantID(c)
	assert.False(t, ok)

	c.Set(TenantIDKey, uuid.Nil)
	_, ok = GetTenantID(c)
	assert.False(t, ok)
}
