package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config describes an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	KeyID     string
	Secret    string
	PublicURL string
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores objects in a bucket using path-style addressing.
type S3 struct {
	client    s3API
	bucket    string
	publicURL string
}

// NewS3 builds an S3 backend from static credentials.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: s3 bucket is required")
	}
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" && cfg.Endpoint != "" {
		public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3{client: s3.New(opts), bucket: cfg.Bucket, publicURL: public}, nil
}

// Put uploads body under key.
func (s *S3) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("storage: put %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the bucket.
func (s *S3) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

// URL returns the object URL under the public base.
func (s *S3) URL(key string) string {
	return s.publicURL + "/" + key
}
