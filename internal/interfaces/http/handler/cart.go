package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/application/checkout"
)

// CartHandler exposes the shopper's session cart.
type CartHandler struct {
	BaseHandler
	cartService *checkout.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *checkout.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// Get returns the cart with its totals; a new session gets an empty cart.
// GET /api/v1/storefront/cart.
func (h *CartHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	session, ok := h.cartSession(c)
	if !ok {
		return
	}

	resp, err := h.cartService.GetCart(c.Request.Context(), tenantID, session)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddItem adds a product to the cart, merging with an existing line.
// POST /api/v1/storefront/cart/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	session, ok := h.cartSession(c)
	if !ok {
		return
	}
	var req checkout.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.cartService.AddItem(c.Request.Context(), tenantID, session, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateQuantity sets the absolute quantity of a line; 0 or less removes it.
// PUT /api/v1/storefront/cart/items/:product_id.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	session, ok := h.cartSession(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "product_id")
	if !ok {
		return
	}
	var req checkout.UpdateQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.cartService.UpdateQuantity(c.Request.Context(), tenantID, session, productID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem removes a line; removing an absent product is not an error.
// DELETE /api/v1/storefront/cart/items/:product_id.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	session, ok := h.cartSession(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "product_id")
	if !ok {
		return
	}

	resp, err := h.cartService.RemoveItem(c.Request.Context(), tenantID, session, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Clear empties the cart.
// DELETE /api/v1/storefront/cart.
func (h *CartHandler) Clear(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	session, ok := h.cartSession(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), tenantID, session); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
