//go:build integration

package integration

import (
	"net/http"
	"testing"

	storeapp "github.com/shopfront/backend/internal/application/store"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreProfile_CustomDomainAndClosing(t *testing.T) {
	app := NewTestApp(t)
	acme := app.DB.CreateTenant("acme", "")
	app.DB.CreateTenant("globex", "shop.globex.example")

	w, resp := app.Admin(http.MethodPut, "/store", acme.ID, map[string]any{
		"name":          "Acme Outlet",
		"contact_email": "sales@acme.example",
		"domain":        "shop.acme.example",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "shop.acme.example", testutil.DataAs[storeapp.ProfileResponse](t, resp).Domain)

	// The new domain resolves right away
	w, resp = app.Storefront(http.MethodGet, "/store", "shop.acme.example", "profile-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	public := testutil.DataAs[storeapp.PublicProfileResponse](t, resp)
	assert.Equal(t, "Acme Outlet", public.Name)
	assert.Equal(t, "sales@acme.example", public.ContactEmail)

	w, resp = app.Admin(http.MethodPut, "/store", acme.ID, map[string]any{
		"name":   "Acme Outlet",
		"domain": "shop.globex.example",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	testutil.AssertErrorCode(t, resp, dto.ErrCodeConflict)

	// Closing hides the storefront but not the back office
	w, _ = app.Admin(http.MethodPut, "/store/status", acme.ID, map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = app.Storefront(http.MethodGet, "/products", "acme."+baseDomain, "profile-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = app.Admin(http.MethodGet, "/store", acme.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inactive", testutil.DataAs[storeapp.ProfileResponse](t, resp).Status)
}
