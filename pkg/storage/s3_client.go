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
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// BlobStore writes immutable objects and resolves their public address
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, opts ObjectOptions) error
	PublicURL(key string) string
}

// ObjectOptions describes how an object is stored
type ObjectOptions struct {
	ContentType  string            `json:"content_type"`
	CacheControl string            `json:"cache_control,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// S3Options configures the S3 backed store
type S3Options struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint,omitempty"` // custom endpoint, e.g. MinIO
	UsePathStyle    bool   `json:"use_path_style"`
	PublicBaseURL   string `json:"public_base_url,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	SessionToken    string `json:"session_token,omitempty"`
}

type uploaderAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store stores objects in an S3 compatible bucket
type S3Store struct {
	uploader uploaderAPI
	options  S3Options
	logger   *zap.Logger
}

// NewS3Store loads AWS configuration once and builds an uploader that is
// reused read-only by every call
func NewS3Store(ctx context.Context, opts S3Options, logger *zap.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket not set")
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if opts.Region == "" {
		opts.Region = awsCfg.Region
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return newS3Store(manager.NewUploader(client), opts, logger), nil
}

func newS3Store(uploader uploaderAPI, opts S3Options, logger *zap.Logger) *S3Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Store{
		uploader: uploader,
		options:  opts,
		logger:   logger,
	}
}

// Upload writes data at key, replacing any existing object
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, opts ObjectOptions) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.options.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		fields := []zap.Field{
			zap.String("bucket", s.options.Bucket),
			zap.String("key", key),
			zap.Error(err),
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			fields = append(fields, zap.String("error_code", apiErr.ErrorCode()))
		}
		s.logger.Error("S3 upload failed", fields...)
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.options.Bucket, key, err)
	}

	s.logger.Info("S3 upload completed",
		zap.String("bucket", s.options.Bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return nil
}

// PublicURL returns the address under which key is publicly readable
func (s *S3Store) PublicURL(key string) string {
	escaped := escapeKey(key)
	switch {
	case s.options.PublicBaseURL != "":
		return strings.TrimRight(s.options.PublicBaseURL, "/") + "/" + escaped
	case s.options.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.options.Endpoint, "/"), s.options.Bucket, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.options.Bucket, s.options.Region, escaped)
	}
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
