//go:build integration

package integration

import (
	"net/http"
	"testing"

	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	checkoutapp "github.com/shopfront/backend/internal/application/checkout"
	tradeapp "github.com/shopfront/backend/internal/application/trade"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantIsolation_Storefront(t *testing.T) {
	app := NewTestApp(t)
	acme := app.DB.CreateTenant("acme", "")
	globex := app.DB.CreateTenant("globex", "shop.globex.example")
	acmeProduct := app.DB.CreateProduct(acme.ID, "A-1", "Anvil", "99.00")
	app.DB.CreateProduct(globex.ID, "G-1", "Gadget", "5.00")

	t.Run("catalog is scoped to the resolved store", func(t *testing.T) {
		w, resp := app.Storefront(http.MethodGet, "/products", "shop.globex.example", "iso-1", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		products := testutil.DataAs[[]catalogapp.StorefrontProductResponse](t, resp)
		require.Len(t, products, 1)
		assert.Equal(t, "Gadget", products[0].Name)

		w, _ = app.Storefront(http.MethodGet, "/products/"+acmeProduct.ID.String(), "shop.globex.example", "iso-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("another store's product cannot be added", func(t *testing.T) {
		w, resp := app.Storefront(http.MethodPost, "/cart/items", "globex."+baseDomain, "iso-2", map[string]any{
			"product_id": acmeProduct.ID,
			"quantity":   1,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		testutil.AssertErrorCode(t, resp, dto.ErrCodeProductNotFound)
	})

	t.Run("the same session id holds separate carts per store", func(t *testing.T) {
		w, _ := app.Storefront(http.MethodPost, "/cart/items", "acme."+baseDomain, "shared-session", map[string]any{
			"product_id": acmeProduct.ID,
			"quantity":   1,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w, resp := app.Storefront(http.MethodGet, "/cart", "globex."+baseDomain, "shared-session", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, testutil.DataAs[checkoutapp.CartResponse](t, resp).Items)
	})

	t.Run("header selects the store by id", func(t *testing.T) {
		w, resp := app.Do(request{
			method:  http.MethodGet,
			path:    "/api/v1/storefront/products",
			headers: map[string]string{"X-Tenant-ID": acme.ID.String()},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		products := testutil.DataAs[[]catalogapp.StorefrontProductResponse](t, resp)
		require.Len(t, products, 1)
		assert.Equal(t, "Anvil", products[0].Name)
	})

	t.Run("unknown store", func(t *testing.T) {
		w, _ := app.Storefront(http.MethodGet, "/products", "initech."+baseDomain, "iso-3", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTenantIsolation_Admin(t *testing.T) {
	app := NewTestApp(t)
	acme := app.DB.CreateTenant("acme", "")
	globex := app.DB.CreateTenant("globex", "")
	product := app.DB.CreateProduct(acme.ID, "A-1", "Anvil", "99.00")

	w, _ := app.Storefront(http.MethodPost, "/cart/items", "acme."+baseDomain, "admin-iso", map[string]any{
		"product_id": product.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, resp := app.Storefront(http.MethodPost, "/checkout", "acme."+baseDomain, "admin-iso", map[string]any{
		"customer_name":  "Wile E. Coyote",
		"customer_email": "wile@example.com",
		"street":         "Mesa 4",
		"city":           "Desert",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := testutil.DataAs[checkoutapp.PlaceOrderResponse](t, resp)

	// Globex's token sees none of Acme's data
	w, resp = app.Admin(http.MethodGet, "/orders", globex.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, testutil.DataAs[[]tradeapp.OrderListItemResponse](t, resp))

	w, _ = app.Admin(http.MethodGet, "/orders/"+placed.OrderID.String(), globex.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.Admin(http.MethodPut, "/orders/"+placed.OrderID.String()+"/status", globex.ID, map[string]any{
		"status": "cancelled",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.Admin(http.MethodGet, "/products/"+product.ID.String(), globex.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Acme's order is untouched
	w, resp = app.Admin(http.MethodGet, "/orders/"+placed.OrderID.String(), acme.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", testutil.DataAs[tradeapp.OrderResponse](t, resp).Status)
}

func TestAdmin_RequiresToken(t *testing.T) {
	app := NewTestApp(t)

	w, resp := app.Do(request{method: http.MethodGet, path: "/api/v1/admin/orders"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	testutil.AssertErrorCode(t, resp, dto.ErrCodeUnauthorized)
}
