package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/noah-isme/student-portal-api/pkg/config"
)

// s3API is the subset of the S3 client used by S3Storage.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage keeps uploads in an S3 compatible bucket.
type S3Storage struct {
	client  s3API
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Storage loads the default AWS credential chain and builds a client.
func NewS3Storage(ctx context.Context, cfg config.S3Config, publicBaseURL string) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage: bucket not set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 storage: load aws config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	if publicBaseURL == "" || publicBaseURL[0] == '/' {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, awsCfg.Region)
	}
	return newS3Storage(client, cfg.Bucket, cfg.Prefix, publicBaseURL), nil
}

func newS3Storage(client s3API, bucket, prefix, baseURL string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: prefix, baseURL: baseURL}
}

func (s *S3Storage) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Put uploads the reader contents under key.
func (s *S3Storage) Put(ctx context.Context, key, contentType string, r io.Reader) (*Object, error) {
	// The SDK signs the payload, so the body must be seekable.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("s3 buffer %q: %w", key, err)
	}
	full := s.fullKey(key)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(full),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 put %q: %w", key, err)
	}
	return &Object{Key: key, URL: publicURL(s.baseURL, full), Size: int64(len(data)), ContentType: contentType}, nil
}

// Open streams the object body. Callers must close it.
func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("s3 get %q: %w", key, err)
	}
	return out.Body, nil
}

// Delete removes the object; missing keys are not an error in S3.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	}); err != nil {
		return fmt.Errorf("s3 delete %q: %w", key, err)
	}
	return nil
}
