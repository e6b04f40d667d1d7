package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product.
type CreateProductRequest struct {
	Code             string            `json:"code" binding:"required,min=1,max=50,product_code"`
	Name             string            `json:"name" binding:"required,min=1,max=200"`
	Description      string            `json:"description" binding:"max=5000"`
	Price            decimal.Decimal   `json:"price"`
	PromotionalPrice *decimal.Decimal  `json:"promotional_price"`
	CustomFields     map[string]string `json:"custom_fields" binding:"omitempty,max=50"`
	SortOrder        *int              `json:"sort_order"`
}

// UpdateProductRequest represents a request to update a product.
// ClearPromotionalPrice removes the promotion; it wins over PromotionalPrice.
type UpdateProductRequest struct {
	Name                  *string            `json:"name" binding:"omitempty,min=1,max=200"`
	Description           *string            `json:"description" binding:"omitempty,max=5000"`
	Price                 *decimal.Decimal   `json:"price"`
	PromotionalPrice      *decimal.Decimal   `json:"promotional_price"`
	ClearPromotionalPrice bool               `json:"clear_promotional_price"`
	CustomFields          *map[string]string `json:"custom_fields"`
	SortOrder             *int               `json:"sort_order"`
}

// ImageUploadRequest asks for a presigned URL to upload a product image.
type ImageUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// ImageUploadResponse carries the presigned upload URL.
type ImageUploadResponse struct {
	UploadURL string    `json:"upload_url"`
	ImageKey  string    `json:"image_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProductResponse represents a product in admin API responses.
type ProductResponse struct {
	ID               uuid.UUID         `json:"id"`
	TenantID         uuid.UUID         `json:"tenant_id"`
	Code             string            `json:"code"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Price            decimal.Decimal   `json:"price"`
	PromotionalPrice *decimal.Decimal  `json:"promotional_price,omitempty"`
	EffectivePrice   decimal.Decimal   `json:"effective_price"`
	OnPromotion      bool              `json:"on_promotion"`
	ImageKey         string            `json:"image_key,omitempty"`
	ImageURL         string            `json:"image_url,omitempty"`
	CustomFields     map[string]string `json:"custom_fields"`
	Status           string            `json:"status"`
	SortOrder        int               `json:"sort_order"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Version          int               `json:"version"`
}

// StorefrontProductResponse is what shoppers see.
type StorefrontProductResponse struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	EffectivePrice decimal.Decimal   `json:"effective_price"`
	OnPromotion    bool              `json:"on_promotion"`
	ImageURL       string            `json:"image_url,omitempty"`
	CustomFields   map[string]string `json:"custom_fields"`
}

// ProductListFilter represents filter options for product list.
type ProductListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name price sort_order created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToProductResponse converts a domain Product to ProductResponse.
func ToProductResponse(p *catalog.Product) ProductResponse {
	var promo *decimal.Decimal
	if p.PromotionalPrice != nil {
		v := p.PromotionalPrice.Round(2)
		promo = &v
	}
	return ProductResponse{
		ID:               p.ID,
		TenantID:         p.TenantID,
		Code:             p.Code,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price.Round(2),
		PromotionalPrice: promo,
		EffectivePrice:   p.EffectivePrice().Round(2),
		OnPromotion:      p.IsOnPromotion(),
		ImageKey:         p.ImageKey,
		CustomFields:     nonNilFields(p.CustomFields),
		Status:           string(p.Status),
		SortOrder:        p.SortOrder,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Version:          p.Version,
	}
}

// ToStorefrontProductResponse converts a domain Product for shoppers.
func ToStorefrontProductResponse(p *catalog.Product) StorefrontProductResponse {
	return StorefrontProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price.Round(2),
		EffectivePrice: p.EffectivePrice().Round(2),
		OnPromotion:    p.IsOnPromotion(),
		CustomFields:   nonNilFields(p.CustomFields),
	}
}

func nonNilFields(fields map[string]string) map[string]string {
	if fields == nil {
		return map[string]string{}
	}
	return fields
}
