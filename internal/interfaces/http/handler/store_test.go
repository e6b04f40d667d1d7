package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	storeapp "github.com/shopfront/backend/internal/application/store"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	args := m.Called(ctx, code)
	return nil, args.Error(1)
}

func (m *MockTenantRepository) FindByDomain(ctx context.Context, domain string) (*identity.Tenant, error) {
	args := m.Called(ctx, domain)
	return nil, args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func setupStoreRouter(t *testing.T) (*gin.Engine, *MockTenantRepository, *identity.Tenant) {
	t.Helper()
	tenant, err := identity.NewTenant("acme", "Acme")
	require.NoError(t, err)
	tenant.ID = testTenantID

	repo := new(MockTenantRepository)
	repo.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)

	h := NewStoreHandler(storeapp.NewStoreService(repo, nil, nil))
	router := setupTestRouter(withTenant(testTenantID))
	router.GET("/storefront/store", h.Public)
	router.GET("/store", h.Get)
	router.PUT("/store", h.Update)
	router.PUT("/store/status", h.ChangeStatus)
	return router, repo, tenant
}

func TestStoreHandler_Get(t *testing.T) {
	router, _, _ := setupStoreRouter(t)

	w := performRequest(router, http.MethodGet, "/store", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, "acme", data["code"])
	assert.Equal(t, "active", data["status"])

	w = performRequest(router, http.MethodGet, "/storefront/store", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = dataMap(t, decodeResponse(t, w))
	assert.Equal(t, "Acme", data["name"])
	assert.NotContains(t, data, "status")
}

func TestStoreHandler_Update(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]any
		saveErr        error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid profile",
			body:           map[string]any{"name": "Acme Outlet", "contact_email": "hi@acme.test", "domain": "shop.acme.test"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing name",
			body:           map[string]any{"contact_email": "hi@acme.test"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeValidation,
		},
		{
			name:           "bad email",
			body:           map[string]any{"name": "Acme", "contact_email": "nope"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeValidation,
		},
		{
			name:           "domain taken",
			body:           map[string]any{"name": "Acme", "domain": "taken.example"},
			saveErr:        shared.NewDomainError("DOMAIN_TAKEN", "Domain is already used by another store"),
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, repo, _ := setupStoreRouter(t)
			repo.On("Save", mock.Anything, mock.Anything).Return(tt.saveErr)

			w := performRequest(router, http.MethodPut, "/store", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			resp := decodeResponse(t, w)
			if tt.expectedCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.expectedCode, resp.Error.Code)
				return
			}
			assert.Equal(t, "Acme Outlet", dataMap(t, resp)["name"])
		})
	}
}

func TestStoreHandler_ChangeStatus(t *testing.T) {
	router, repo, _ := setupStoreRouter(t)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	w := performRequest(router, http.MethodPut, "/store/status", map[string]any{"status": "suspended"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodPut, "/store/status", map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "inactive", dataMap(t, decodeResponse(t, w))["status"])

	w = performRequest(router, http.MethodPut, "/store/status", map[string]any{"status": "inactive"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decodeResponse(t, w).Error.Code)
}
