package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
)

// Handlers groups the HTTP handlers mounted by the API.
type Handlers struct {
	Storefront *handler.StorefrontHandler
	Cart       *handler.CartHandler
	Checkout   *handler.CheckoutHandler
	Products   *handler.ProductHandler
	Orders     *handler.OrderHandler
	Store      *handler.StoreHandler
	Health     *handler.HealthHandler
}

// StorefrontMiddleware is applied to the public storefront group in order.
// Tenant must resolve before Session so session logs carry the tenant.
type StorefrontMiddleware struct {
	Tenant        gin.HandlerFunc
	Session       gin.HandlerFunc
	Extra         []gin.HandlerFunc
	CheckoutLimit gin.HandlerFunc
}

// StorefrontRoutes builds the public, tenant-scoped shopping API.
func StorefrontRoutes(h Handlers, mw StorefrontMiddleware) *DomainGroup {
	group := NewDomainGroup("storefront", "/storefront")
	for _, m := range append([]gin.HandlerFunc{mw.Tenant, mw.Session}, mw.Extra...) {
		if m != nil {
			group.Use(m)
		}
	}

	group.GET("/store", h.Store.Public)
	group.GET("/products", h.Storefront.ListProducts)
	group.GET("/products/:id", h.Storefront.GetProduct)

	group.GET("/cart", h.Cart.Get)
	group.DELETE("/cart", h.Cart.Clear)
	group.POST("/cart/items", h.Cart.AddItem)
	group.PUT("/cart/items/:product_id", h.Cart.UpdateQuantity)
	group.DELETE("/cart/items/:product_id", h.Cart.RemoveItem)

	if mw.CheckoutLimit != nil {
		group.POST("/checkout", mw.CheckoutLimit, h.Checkout.PlaceOrder)
	} else {
		group.POST("/checkout", h.Checkout.PlaceOrder)
	}
	return group
}

// AdminRoutes builds the authenticated back-office API. auth must scope
// the request to the token's tenant.
func AdminRoutes(h Handlers, auth gin.HandlerFunc) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin").Use(auth)

	admin.Group("products", "/products").
		POST("", h.Products.Create).
		GET("", h.Products.List).
		GET("/:id", h.Products.GetByID).
		PUT("/:id", h.Products.Update).
		DELETE("/:id", h.Products.Delete).
		POST("/:id/activate", h.Products.Activate).
		POST("/:id/deactivate", h.Products.Deactivate).
		POST("/:id/image/upload-url", h.Products.InitiateImageUpload)

	admin.Group("orders", "/orders").
		GET("", h.Orders.List).
		GET("/summary", h.Orders.Summary).
		GET("/number/:order_number", h.Orders.GetByOrderNumber).
		GET("/:id", h.Orders.GetByID).
		PUT("/:id/status", h.Orders.UpdateStatus)

	admin.Group("store", "/store").
		GET("", h.Store.Get).
		PUT("", h.Store.Update).
		PUT("/status", h.Store.ChangeStatus)

	return admin
}

// RegisterHealthRoutes mounts the unversioned health endpoints on the engine.
func RegisterHealthRoutes(engine *gin.Engine, health *handler.HealthHandler) {
	engine.GET("/health", health.Health)
	engine.GET("/ping", health.Ping)
}
