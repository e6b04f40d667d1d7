//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	checkoutapp "github.com/shopfront/backend/internal/application/checkout"
	tradeapp "github.com/shopfront/backend/internal/application/trade"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefront_BrowseCartCheckout(t *testing.T) {
	app := NewTestApp(t)
	tenant := app.DB.CreateTenant("acme", "")
	host := "acme." + baseDomain
	session := "flow-session-1"

	// Back office creates a product on promotion
	w, resp := app.Admin(http.MethodPost, "/products", tenant.ID, map[string]any{
		"code":              "TEE-001",
		"name":              "Logo tee",
		"price":             "20.00",
		"promotional_price": "15.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := testutil.DataAs[catalogapp.ProductResponse](t, resp)

	// Shoppers see it at the promotional price
	w, resp = app.Storefront(http.MethodGet, "/products", host, session, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	listed := testutil.DataAs[[]catalogapp.StorefrontProductResponse](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, product.ID, listed[0].ID)
	assert.True(t, listed[0].OnPromotion)
	requireDecimal(t, "15", listed[0].EffectivePrice)

	// Adding twice merges into one line
	for range 2 {
		w, _ = app.Storefront(http.MethodPost, "/cart/items", host, session, map[string]any{
			"product_id": product.ID,
			"quantity":   1,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w, resp = app.Storefront(http.MethodGet, "/cart", host, session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cartResp := testutil.DataAs[checkoutapp.CartResponse](t, resp)
	require.Len(t, cartResp.Items, 1)
	assert.Equal(t, 2, cartResp.Items[0].Quantity)
	assert.Equal(t, 2, cartResp.TotalItems)
	requireDecimal(t, "30", cartResp.TotalPrice)
	assert.Equal(t, session, w.Header().Get("X-Cart-Session"))

	// Checkout
	w, resp = app.Storefront(http.MethodPost, "/checkout", host, session, map[string]any{
		"customer_name":  "Ada Lovelace",
		"customer_email": "ada@example.com",
		"street":         "1 Analytical Way",
		"city":           "London",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := testutil.DataAs[checkoutapp.PlaceOrderResponse](t, resp)
	assert.Equal(t, fmt.Sprintf("ORD-%d-00001", time.Now().Year()), placed.OrderNumber)
	assert.Equal(t, 2, placed.ItemCount)
	requireDecimal(t, "30", placed.TotalAmount)
	assert.Equal(t, int64(1), app.DB.CountOrders(tenant.ID))

	// The cart is emptied after a successful order
	w, resp = app.Storefront(http.MethodGet, "/cart", host, session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, testutil.DataAs[checkoutapp.CartResponse](t, resp).Items)

	// A second checkout has nothing to submit
	w, resp = app.Storefront(http.MethodPost, "/checkout", host, session, map[string]any{
		"customer_name":  "Ada Lovelace",
		"customer_email": "ada@example.com",
		"street":         "1 Analytical Way",
		"city":           "London",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	testutil.AssertErrorCode(t, resp, dto.ErrCodeEmptyCart)

	// Back office sees the order with its price snapshot
	w, resp = app.Admin(http.MethodGet, "/orders", tenant.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	orders := testutil.DataAs[[]tradeapp.OrderListItemResponse](t, resp)
	require.Len(t, orders, 1)
	assert.Equal(t, placed.OrderNumber, orders[0].OrderNumber)

	w, resp = app.Admin(http.MethodGet, "/orders/number/"+placed.OrderNumber, tenant.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := testutil.DataAs[tradeapp.OrderResponse](t, resp)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "Ada Lovelace", order.CustomerName)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Logo tee", order.Items[0].ProductName)
	requireDecimal(t, "15", order.Items[0].UnitPrice)

	// and moves it along
	w, resp = app.Admin(http.MethodPut, "/orders/"+order.ID.String()+"/status", tenant.ID, map[string]any{
		"status": "confirmed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", testutil.DataAs[tradeapp.OrderResponse](t, resp).Status)

	w, resp = app.Admin(http.MethodGet, "/orders/summary", tenant.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := testutil.DataAs[tradeapp.OrderStatusSummary](t, resp)
	assert.Equal(t, int64(1), summary.Confirmed)
	assert.Equal(t, int64(1), summary.Total)
}

func TestStorefront_CheckoutValidation(t *testing.T) {
	app := NewTestApp(t)
	tenant := app.DB.CreateTenant("acme", "")
	product := app.DB.CreateProduct(tenant.ID, "MUG-1", "Mug", "9.50")
	host := "acme." + baseDomain

	w, _ := app.Storefront(http.MethodPost, "/cart/items", host, "validation-session", map[string]any{
		"product_id": product.ID,
		"quantity":   3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp := app.Storefront(http.MethodPost, "/checkout", host, "validation-session", map[string]any{
		"customer_name":  "Ada",
		"customer_email": "not-an-email",
		"street":         "1 Analytical Way",
		"city":           "London",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	testutil.AssertErrorCode(t, resp, dto.ErrCodeValidation)

	// Nothing was submitted and the cart is intact
	assert.Zero(t, app.DB.CountOrders(tenant.ID))
	w, resp = app.Storefront(http.MethodGet, "/cart", host, "validation-session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cartResp := testutil.DataAs[checkoutapp.CartResponse](t, resp)
	assert.Equal(t, 3, cartResp.TotalItems)
	requireDecimal(t, "28.5", cartResp.TotalPrice)
}

func TestStorefront_InactiveProductCannotBeAdded(t *testing.T) {
	app := NewTestApp(t)
	tenant := app.DB.CreateTenant("acme", "")
	product := app.DB.CreateProduct(tenant.ID, "OLD-1", "Retired", "5.00")

	w, _ := app.Admin(http.MethodPost, "/products/"+product.ID.String()+"/deactivate", tenant.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp := app.Storefront(http.MethodPost, "/cart/items", "acme."+baseDomain, "inactive-session", map[string]any{
		"product_id": product.ID,
		"quantity":   1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	testutil.AssertErrorCode(t, resp, dto.ErrCodeProductUnavailable)
}

func TestStorefront_CartsSurviveInRedis(t *testing.T) {
	app := NewTestApp(t)
	tenant := app.DB.CreateTenant("acme", "")
	product := app.DB.CreateProduct(tenant.ID, "CAP-1", "Cap", "12.00")

	w, _ := app.Storefront(http.MethodPost, "/cart/items", "acme."+baseDomain, "redis-session", map[string]any{
		"product_id": product.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, app.Redis.Keys(), 1)

	// An expired cart reads back empty
	app.Redis.FastForward(25 * time.Hour)
	w, resp := app.Storefront(http.MethodGet, "/cart", "acme."+baseDomain, "redis-session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, testutil.DataAs[checkoutapp.CartResponse](t, resp).Items)
}
