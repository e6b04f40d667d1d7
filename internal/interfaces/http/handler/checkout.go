package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/application/checkout"
)

// CheckoutHandler turns the session cart into an order.
type CheckoutHandler struct {
	BaseHandler
	checkoutService *checkout.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *checkout.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// PlaceOrder submits the cart with the customer form.
// On success the cart is empty and 201 carries the order number; on any
// failure the cart is unchanged.
// POST /api/v1/storefront/checkout.
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	session, ok := h.cartSession(c)
	if !ok {
		return
	}
	var req checkout.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.checkoutService.PlaceOrder(c.Request.Context(), tenantID, session, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
