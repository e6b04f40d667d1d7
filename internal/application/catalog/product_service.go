package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ImageURLResolver turns a stored image key into a URL a browser can load.
type ImageURLResolver interface {
	ImageURL(ctx context.Context, key string) string
}

// ProductService handles product-related business operations.
type ProductService struct {
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
	images         ImageURLResolver
	logger         *zap.Logger
}

// ProductServiceOption configures a ProductService.
type ProductServiceOption func(*ProductService)

// WithEventPublisher publishes product events after every successful save.
func WithEventPublisher(publisher shared.EventPublisher) ProductServiceOption {
	return func(s *ProductService) {
		s.eventPublisher = publisher
	}
}

// WithImageURLResolver resolves image keys in responses.
func WithImageURLResolver(resolver ImageURLResolver) ProductServiceOption {
	return func(s *ProductService) {
		s.images = resolver
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) ProductServiceOption {
	return func(s *ProductService) {
		s.logger = logger
	}
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo catalog.ProductRepository, opts ...ProductServiceOption) *ProductService {
	s := &ProductService{
		productRepo: productRepo,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetImageURLResolver sets the resolver after construction, for resolvers that depend on the service.
func (s *ProductService) SetImageURLResolver(resolver ImageURLResolver) {
	s.images = resolver
}

// Create creates a new product.
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.CodeTaken(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this code already exists")
	}

	product, err := catalog.NewProduct(tenantID, req.Code, req.Name, req.Price)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.PromotionalPrice != nil {
		if err := product.SetPricing(req.Price, req.PromotionalPrice); err != nil {
			return nil, err
		}
	}
	if len(req.CustomFields) > 0 {
		if err := product.SetCustomFields(req.CustomFields); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != nil {
		product.SetSortOrder(*req.SortOrder)
	}

	if err := s.save(ctx, product); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, product), nil
}

// GetByID retrieves a product by ID.
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	return s.toResponse(ctx, product), nil
}

// List retrieves a list of products with filtering and pagination.
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.list(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = *s.toResponse(ctx, &products[i])
	}
	return out, total, nil
}

// ListForStorefront lists the active products of a store.
func (s *ProductService) ListForStorefront(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) ([]StorefrontProductResponse, int64, error) {
	filter.Status = string(catalog.ProductStatusActive)
	products, total, err := s.list(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]StorefrontProductResponse, len(products))
	for i := range products {
		out[i] = s.toStorefrontResponse(ctx, &products[i])
	}
	return out, total, nil
}

// GetForStorefront retrieves an active product; inactive products are reported as not found.
func (s *ProductService) GetForStorefront(ctx context.Context, tenantID, productID uuid.UUID) (*StorefrontProductResponse, error) {
	product, err := s.productRepo.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, shared.ErrNotFound
	}

	response := s.toStorefrontResponse(ctx, product)
	return &response, nil
}

// Update updates a product.
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := product.Name
		description := product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if req.Price != nil || req.PromotionalPrice != nil || req.ClearPromotionalPrice {
		price := product.Price
		if req.Price != nil {
			price = *req.Price
		}
		promo := product.PromotionalPrice
		if req.PromotionalPrice != nil {
			promo = req.PromotionalPrice
		}
		if req.ClearPromotionalPrice {
			promo = nil
		}
		if err := product.SetPricing(price, promo); err != nil {
			return nil, err
		}
	}

	if req.CustomFields != nil {
		if err := product.SetCustomFields(*req.CustomFields); err != nil {
			return nil, err
		}
	}

	if req.SortOrder != nil {
		product.SetSortOrder(*req.SortOrder)
	}

	if err := s.save(ctx, product); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, product), nil
}

// Delete deletes a product. Existing cart lines and orders keep their copies.
func (s *ProductService) Delete(ctx context.Context, tenantID, productID uuid.UUID) error {
	product, err := s.productRepo.Get(ctx, tenantID, productID)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, tenantID, productID); err != nil {
		return err
	}

	s.publish(ctx, catalog.NewProductDeletedEvent(product))
	return nil
}

// Activate activates a product.
func (s *ProductService) Activate(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Activate(); err != nil {
		return nil, err
	}

	if err := s.save(ctx, product); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, product), nil
}

// Deactivate deactivates a product.
func (s *ProductService) Deactivate(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.save(ctx, product); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, product), nil
}

// SetImage records the uploaded image key on the product.
func (s *ProductService) SetImage(ctx context.Context, tenantID, productID uuid.UUID, key string) (*ProductResponse, error) {
	product, err := s.productRepo.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.SetImage(key); err != nil {
		return nil, err
	}
	product.RaiseEvent(catalog.NewProductUpdatedEvent(product))

	if err := s.save(ctx, product); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, product), nil
}

func (s *ProductService) list(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) ([]catalog.Product, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "sort_order"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  map[string]any{},
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	products, err := s.productRepo.List(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.productRepo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// save persists the product and then publishes its pending events.
func (s *ProductService) save(ctx context.Context, product *catalog.Product) error {
	if err := s.productRepo.Save(ctx, product); err != nil {
		return err
	}

	events := product.PendingEvents()
	product.MarkEventsPublished()
	s.publish(ctx, events...)
	return nil
}

func (s *ProductService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish product events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func (s *ProductService) toResponse(ctx context.Context, product *catalog.Product) *ProductResponse {
	response := ToProductResponse(product)
	response.ImageURL = s.imageURL(ctx, product.ImageKey)
	return &response
}

func (s *ProductService) toStorefrontResponse(ctx context.Context, product *catalog.Product) StorefrontProductResponse {
	response := ToStorefrontProductResponse(product)
	response.ImageURL = s.imageURL(ctx, product.ImageKey)
	return response
}

func (s *ProductService) imageURL(ctx context.Context, key string) string {
	if key == "" || s.images == nil {
		return key
	}
	return s.images.ImageURL(ctx, key)
}

