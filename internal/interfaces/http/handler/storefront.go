package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
)

// StorefrontHandler serves the public product catalog of a store.
type StorefrontHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewStorefrontHandler creates a new StorefrontHandler.
func NewStorefrontHandler(productService *catalogapp.ProductService) *StorefrontHandler {
	return &StorefrontHandler{productService: productService}
}

// StorefrontListRequest is the query of the public product list.
// Shoppers cannot list inactive products, so there is no status filter.
type StorefrontListRequest struct {
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name price sort_order created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ListProducts lists active products.
// GET /api/v1/storefront/products.
func (h *StorefrontHandler) ListProducts(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req StorefrontListRequest
	if !h.bindQuery(c, &req) {
		return
	}

	products, total, err := h.productService.ListForStorefront(c.Request.Context(), tenantID, catalogapp.ProductListFilter{
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := pageOrDefault(req.Page, req.PageSize)
	h.SuccessWithMeta(c, products, total, page, pageSize)
}

// GetProduct returns one active product with its effective price.
// GET /api/v1/storefront/products/:id.
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetForStorefront(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
