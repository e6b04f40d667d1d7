package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ObjectStorageService is the object storage the product images live in.
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file.
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file.
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage.
	DeleteObject(ctx context.Context, storageKey string) error
}

// AllowedImageContentTypes lists the image formats a store may upload.
var AllowedImageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageServiceConfig holds configuration for product image uploads.
type ImageServiceConfig struct {
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
}

// DefaultImageServiceConfig returns the default configuration.
func DefaultImageServiceConfig() ImageServiceConfig {
	return ImageServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: 1 * time.Hour,
	}
}

// ImageService issues upload URLs for product images and resolves stored keys.
type ImageService struct {
	products *ProductService
	storage  ObjectStorageService
	config   ImageServiceConfig
	logger   *zap.Logger
}

// NewImageService creates a new ImageService.
func NewImageService(products *ProductService, storage ObjectStorageService, config ImageServiceConfig, logger *zap.Logger) *ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{
		products: products,
		storage:  storage,
		config:   config,
		logger:   logger,
	}
}

// InitiateUpload returns a presigned PUT URL and records the object key as the product image.
func (s *ImageService) InitiateUpload(ctx context.Context, tenantID, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	defaultExt, ok := AllowedImageContentTypes[contentType]
	if !ok {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type '%s' is not allowed. Allowed types: JPEG, PNG, WebP, GIF.", req.ContentType))
	}

	product, err := s.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	key := imageStorageKey(tenantID, productID, req.FileName, defaultExt)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.config.UploadURLExpiry)
	if err != nil {
		s.logger.Error("failed to generate upload URL", zap.String("key", key), zap.Error(err))
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	previous := product.ImageKey
	if _, err := s.products.SetImage(ctx, tenantID, productID, key); err != nil {
		return nil, err
	}

	if previous != "" && previous != key {
		if err := s.storage.DeleteObject(ctx, previous); err != nil {
			s.logger.Warn("failed to delete replaced product image", zap.String("key", previous), zap.Error(err))
		}
	}

	return &ImageUploadResponse{
		UploadURL: uploadURL,
		ImageKey:  key,
		ExpiresAt: expiresAt,
	}, nil
}

// ImageURL resolves a stored key to a presigned download URL.
// Absolute URLs are returned unchanged; on failure the key is returned.
func (s *ImageService) ImageURL(ctx context.Context, key string) string {
	if key == "" || strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	url, _, err := s.storage.GenerateDownloadURL(ctx, key, s.config.DownloadURLExpiry)
	if err != nil {
		s.logger.Warn("failed to generate image URL", zap.String("key", key), zap.Error(err))
		return key
	}
	return url
}

// imageStorageKey formats tenants/{tenantID}/products/{productID}/images/{uniqueID}{ext}
func imageStorageKey(tenantID, productID uuid.UUID, fileName, defaultExt string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) > 6 {
		ext = defaultExt
	}
	return fmt.Sprintf("tenants/%s/products/%s/images/%s%s",
		tenantID.String(),
		productID.String(),
		uuid.New().String(),
		ext,
	)
}
