package handler

import (
	"github.com/gin-gonic/gin"
	storeapp "github.com/shopfront/backend/internal/application/store"
)

// StoreHandler serves store settings to merchants and shoppers.
type StoreHandler struct {
	BaseHandler
	stores *storeapp.StoreService
}

func NewStoreHandler(stores *storeapp.StoreService) *StoreHandler {
	return &StoreHandler{stores: stores}
}

// GET /api/v1/storefront/store.
func (h *StoreHandler) Public(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	profile, err := h.stores.PublicProfile(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// GET /api/v1/admin/store.
func (h *StoreHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	profile, err := h.stores.Profile(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// Update replaces the store profile.
// PUT /api/v1/admin/store.
func (h *StoreHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req storeapp.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	profile, err := h.stores.UpdateProfile(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// ChangeStatus opens or closes the storefront.
// PUT /api/v1/admin/store/status.
func (h *StoreHandler) ChangeStatus(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req storeapp.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	profile, err := h.stores.ChangeStatus(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}
