package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/shopfront/backend/internal/application/trade"
)

// OrderHandler handles the admin order endpoints.
type OrderHandler struct {
	BaseHandler
	orderService *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List lists orders, filtered by status and searched by customer or number.
// GET /api/v1/admin/orders.
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter tradeapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// GetByID returns an order with its items.
// GET /api/v1/admin/orders/:id.
func (h *OrderHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetByOrderNumber looks an order up by its ORD-YYYY-NNNNN number.
// GET /api/v1/admin/orders/number/:order_number.
func (h *OrderHandler) GetByOrderNumber(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetByOrderNumber(c.Request.Context(), tenantID, c.Param("order_number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UpdateStatus moves an order to confirmed, completed or cancelled.
// PUT /api/v1/admin/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.UpdateOrderStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Summary counts the store's orders per status.
// GET /api/v1/admin/orders/summary.
func (h *OrderHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	summary, err := h.orderService.GetStatusSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
