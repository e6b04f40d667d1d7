package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
)

// ProductHandler handles the admin product endpoints.
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
	imageService   *catalogapp.ImageService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *catalogapp.ProductService, imageService *catalogapp.ImageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		imageService:   imageService,
	}
}

// Create creates a new product.
// POST /api/v1/admin/products.
func (h *ProductHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req catalogapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetByID returns a product of the store, whatever its status.
// GET /api/v1/admin/products/:id.
func (h *ProductHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List lists products with filtering and pagination.
// GET /api/v1/admin/products.
func (h *ProductHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter catalogapp.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	products, total, err := h.productService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, products, total, page, pageSize)
}

// Update changes the fields present in the request.
// PUT /api/v1/admin/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), tenantID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete deletes a product. Carts holding it keep their snapshot.
// DELETE /api/v1/admin/products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), tenantID, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activate makes a product visible and purchasable.
// POST /api/v1/admin/products/:id/activate.
func (h *ProductHandler) Activate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.Activate(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Deactivate hides a product from the storefront.
// POST /api/v1/admin/products/:id/deactivate.
func (h *ProductHandler) Deactivate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.Deactivate(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// InitiateImageUpload returns a presigned PUT URL for the product image
// and records the object key on the product.
// POST /api/v1/admin/products/:id/image/upload-url.
func (h *ProductHandler) InitiateImageUpload(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.ImageUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.imageService.InitiateUpload(c.Request.Context(), tenantID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
