package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"pet-hero-backend/internal/config"
	"pet-hero-backend/internal/domain/ports/adapter"
)

var _ adapter.ResultStore = (*S3Store)(nil)

// S3Store publishes rendered images to an S3 bucket (or any
// S3-compatible store when an endpoint override is configured).
type S3Store struct {
	client     *s3.Client
	bucket     string
	region     string
	prefix     string
	publicURL  string
	publicRead bool
	log        *zerolog.Logger
}

func NewS3Store(ctx context.Context, cfg config.StorageConfig, log *zerolog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		publicRead: cfg.PublicReadACL,
		log:        log,
	}, nil
}

// Publish uploads the image bytes and returns the public URL the
// client app can fetch it from.
func (s *S3Store) Publish(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objectKey := s.objectKey(key)

	_, err := s.client.PutObject(ctx, s.putInput(objectKey, data, contentType))
	if err != nil {
		return "", fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}

	url := s.URLFor(objectKey)
	s.log.Debug().Str("bucket", s.bucket).Str("key", objectKey).Str("url", url).Msg("result published")
	return url, nil
}

// putInput builds the upload request. The public-read canned ACL makes the
// object fetchable at the derived URL; stores with ACLs disabled turn it off
// in config and expose the prefix through a bucket policy.
func (s *S3Store) putInput(objectKey string, data []byte, contentType string) *s3.PutObjectInput {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if s.publicRead {
		in.ACL = types.ObjectCannedACLPublicRead
	}
	return in
}

func (s *S3Store) objectKey(key string) string {
	cleanKey := strings.TrimLeft(key, "/")
	if s.prefix == "" {
		return cleanKey
	}
	return s.prefix + "/" + cleanKey
}

// URLFor derives the public URL for an object key. A configured
// public base URL (CDN or S3-compatible endpoint) wins over the
// default virtual-hosted AWS form.
func (s *S3Store) URLFor(objectKey string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + objectKey
	}
	if s.region != "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, objectKey)
}
