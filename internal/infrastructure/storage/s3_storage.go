// Package storage keeps the intervention reports technicians attach to completed work orders.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
	"github.com/fixflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	_ appmaintenance.ReportVerifier = (*S3ReportStore)(nil)
	_ appmaintenance.ReportLinker   = (*S3ReportStore)(nil)
)

// ErrInvalidRef is returned for a report reference that names no object of the bucket
var ErrInvalidRef = errors.New("invalid report reference")

// S3ReportStore stores reports in an S3 compatible bucket (AWS S3, MinIO, RustFS)
type S3ReportStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	logger        *zap.Logger
}

// S3ReportStoreOption is a functional option for configuring S3ReportStore
type S3ReportStoreOption func(*S3ReportStore)

// WithLogger sets a custom logger for S3ReportStore
func WithLogger(logger *zap.Logger) S3ReportStoreOption {
	return func(s *S3ReportStore) {
		s.logger = logger
	}
}

// NewS3ReportStore creates a report store from configuration.
// Without static keys the default AWS credential chain is used.
func NewS3ReportStore(ctx context.Context, cfg config.StorageConfig, opts ...S3ReportStoreOption) (*S3ReportStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	var endpoint *string
	if cfg.Endpoint != "" {
		if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
		endpoint = aws.String(cfg.Endpoint)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		o.BaseEndpoint = endpoint
	})

	store := &S3ReportStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Bucket returns the bucket name
func (s *S3ReportStore) Bucket() string {
	return s.bucket
}

// Key resolves a report reference to an object key of the bucket.
// A reference is either a key ("reports/2026/leak.pdf") or an s3:// URL of this bucket.
func (s *S3ReportStore) Key(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "s3://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidRef, err)
		}
		if u.Host != s.bucket {
			return "", fmt.Errorf("%w: bucket %q is not %q", ErrInvalidRef, u.Host, s.bucket)
		}
		ref = u.Path
	}
	key := strings.TrimLeft(ref, "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidRef)
	}
	return key, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3ReportStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating report bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Exists reports whether ref names a stored report. A malformed reference is
// reported as missing rather than as an error.
func (s *S3ReportStore) Exists(ctx context.Context, ref string) (bool, error) {
	key, err := s.Key(ref)
	if err != nil {
		return false, nil
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check report existence: %w", err)
	}
	return true, nil
}

// DownloadURL presigns a GET of the report named by ref
func (s *S3ReportStore) DownloadURL(ctx context.Context, ref string, ttl time.Duration) (string, time.Time, error) {
	key, err := s.Key(ref)
	if err != nil {
		return "", time.Time{}, err
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign report download: %w", err)
	}
	return req.URL, time.Now().Add(ttl), nil
}

// Upload stores a report under key and returns its reference
func (s *S3ReportStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key, err := s.Key(key)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}
	s.logger.Info("Report uploaded", zap.String("bucket", s.bucket), zap.String("key", key))
	return key, nil
}

// isNotFound matches the missing object and bucket errors of S3 and of
// compatible servers that only report the bare error code
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}
