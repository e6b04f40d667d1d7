// Package storage keeps product images in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TenantKeyPrefix is the root every product image key must live under.
const TenantKeyPrefix = "tenants/"

const (
	localEndpoint  = "http://localhost:9000"
	fallbackRegion = "us-east-1"
	fallbackExpiry = 15 * time.Minute
)

// ErrInvalidKey is returned for empty keys and keys outside the tenant tree.
var ErrInvalidKey = errors.New("storage key must be a tenant-scoped path")

// S3Store presigns image uploads and downloads against AWS S3 or a
// compatible server such as MinIO.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
	logger  *zap.Logger
}

func NewS3Store(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*S3Store, error) {
	switch {
	case cfg.Bucket == "":
		return nil, errors.New("storage bucket is required")
	case cfg.AccessKey == "" || cfg.SecretKey == "":
		return nil, errors.New("storage access key and secret key are required")
	}
	endpoint, err := endpointURL(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cmpOr(cfg.Region, fallbackRegion)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	if logger == nil {
		logger = zap.NewNop()
	}
	expiry := cfg.PresignExpiration
	if expiry <= 0 {
		expiry = fallbackExpiry
	}
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
		logger:  logger,
	}, nil
}

func cmpOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// endpointURL adds a scheme to bare host:port endpoints.
func endpointURL(endpoint string, useSSL bool) (string, error) {
	endpoint = cmpOr(endpoint, localEndpoint)
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

func (s *S3Store) Bucket() string { return s.bucket }

// EnsureBucket creates the bucket when the server does not know it.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noBucket) {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Creating image bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

type presignFunc func(ttl time.Duration) (*v4.PresignedHTTPRequest, error)

// signed validates key and runs one presign call. A non-positive ttl uses
// the configured expiry.
func (s *S3Store) signed(key string, ttl time.Duration, op string, sign presignFunc) (string, time.Time, error) {
	if err := validateKey(key); err != nil {
		return "", time.Time{}, err
	}
	if ttl <= 0 {
		ttl = s.expiry
	}
	req, err := sign(ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", op, err)
	}
	return req.URL, time.Now().Add(ttl), nil
}

func (s *S3Store) GenerateUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, time.Time, error) {
	return s.signed(key, ttl, "put", func(ttl time.Duration) (*v4.PresignedHTTPRequest, error) {
		return s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		}, s3.WithPresignExpires(ttl))
	})
}

func (s *S3Store) GenerateDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	return s.signed(key, ttl, "get", func(ttl time.Duration) (*v4.PresignedHTTPRequest, error) {
		return s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(ttl))
	})
}

// DeleteObject removes an image. S3 reports success for missing keys.
func (s *S3Store) DeleteObject(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func validateKey(key string) error {
	rest, ok := strings.CutPrefix(key, TenantKeyPrefix)
	if !ok || rest == "" || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

var _ catalogapp.ObjectStorageService = (*S3Store)(nil)
