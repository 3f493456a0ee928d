// Package storage provides object storage implementations for archiving raw
// marketplace payloads.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/order"
	infraconfig "github.com/channelsync/backend/internal/infrastructure/config"
)

var _ order.PayloadArchiver = (*S3PayloadArchiver)(nil)

// S3PayloadArchiver stores raw marketplace order payloads in any
// S3-compatible backend (AWS S3, MinIO).
type S3PayloadArchiver struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3PayloadArchiverOption configures an S3PayloadArchiver.
type S3PayloadArchiverOption func(*S3PayloadArchiver)

// WithLogger sets a custom logger for S3PayloadArchiver.
func WithLogger(logger *zap.Logger) S3PayloadArchiverOption {
	return func(s *S3PayloadArchiver) {
		s.logger = logger
	}
}

// NewS3PayloadArchiver creates an archiver from storage configuration.
func NewS3PayloadArchiver(cfg *infraconfig.StorageConfig, opts ...S3PayloadArchiverOption) (*S3PayloadArchiver, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	for _, f := range []struct{ name, value string }{
		{"bucket", cfg.Bucket},
		{"access key", cfg.AccessKey},
		{"secret key", cfg.SecretKey},
	} {
		if f.value == "" {
			return nil, fmt.Errorf("storage %s is required", f.name)
		}
	}

	endpoint, err := resolveEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	archiver := &S3PayloadArchiver{
		client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.UsePathStyle
			o.BaseEndpoint = aws.String(endpoint)
		}),
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archiver)
	}
	return archiver, nil
}

// resolveEndpoint fills in the scheme and validates the endpoint URL.
// An empty endpoint falls back to a local MinIO.
func resolveEndpoint(cfg *infraconfig.StorageConfig) (string, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		endpoint = scheme + "://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Called during
// application startup.
func (s *S3PayloadArchiver) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("creating archive bucket", zap.String("bucket", s.bucket))
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}); err != nil {
		// Two instances can race to create the bucket; losing is fine.
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	s.logger.Info("archive bucket created", zap.String("bucket", s.bucket))
	return nil
}

// Archive stores the raw payload for an order and returns its storage key.
func (s *S3PayloadArchiver) Archive(ctx context.Context, shopID uuid.UUID, marketplaceOrderID string, payload []byte) (string, error) {
	if marketplaceOrderID == "" {
		return "", errors.New("marketplace order ID is required")
	}

	key := ArchiveKey(shopID, marketplaceOrderID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive order payload: %w", err)
	}
	return key, nil
}

// GetBucket returns the bucket name.
func (s *S3PayloadArchiver) GetBucket() string {
	return s.bucket
}

// ArchiveKey builds the storage key for an order payload. Keys are stable per
// (shop, marketplace order), so re-archiving overwrites with the latest raw
// payload.
func ArchiveKey(shopID uuid.UUID, marketplaceOrderID string) string {
	return fmt.Sprintf("orders/%s/%s.json", shopID, marketplaceOrderID)
}
