package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	catalogapp "github.com/shopfront/backend/internal/application/catalog"
)

// ErrStorageDisabled is returned for uploads when no object storage is configured.
var ErrStorageDisabled = errors.New("object storage is disabled")

// StaticObjectStorage stands in when object storage is disabled.
// Images already referenced by key resolve to BaseURL/key; uploads are refused.
type StaticObjectStorage struct {
	BaseURL string
}

// NewStaticObjectStorage creates a StaticObjectStorage serving from baseURL.
func NewStaticObjectStorage(baseURL string) *StaticObjectStorage {
	return &StaticObjectStorage{BaseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateUploadURL always fails with ErrStorageDisabled.
func (s *StaticObjectStorage) GenerateUploadURL(context.Context, string, string, time.Duration) (string, time.Time, error) {
	return "", time.Time{}, ErrStorageDisabled
}

// GenerateDownloadURL returns the static URL of the key.
func (s *StaticObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, _ time.Duration) (string, time.Time, error) {
	if err := validateKey(storageKey); err != nil {
		return "", time.Time{}, err
	}
	u, err := url.JoinPath(s.BaseURL, storageKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return u, time.Time{}, nil
}

// DeleteObject is a no-op.
func (s *StaticObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	return validateKey(storageKey)
}

var _ catalogapp.ObjectStorageService = (*StaticObjectStorage)(nil)
