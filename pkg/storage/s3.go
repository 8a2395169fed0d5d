package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of *s3.Client used by S3Backend.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config configures NewS3Client.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// NewS3Client builds an S3 client with static credentials.
// An empty Endpoint uses the AWS default resolver.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		accessKey, secretKey := cfg.AccessKey, cfg.SecretKey
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
					Source:          "formstore",
				}, nil
			}))
	}
	return s3.New(opts)
}

// S3Backend stores artifacts in an S3 bucket.
// Target directories become key prefixes.
//
// Example usage:
//
//	client := storage.NewS3Client(storage.S3Config{Region: "eu-west-1"})
//	backend := storage.NewS3Backend(client, "uploads")
type S3Backend struct {
	client s3API
	bucket string
}

// NewS3Backend creates a new S3 backend.
func NewS3Backend(client *s3.Client, bucket string) *S3Backend {
	return &S3Backend{client: client, bucket: bucket}
}

// Create returns a writer that uploads the object on Commit.
func (s *S3Backend) Create(ctx context.Context, t Target, contentType string) (Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := t.Key()

	return &objectWriter{
		ctx: ctx,
		upload: func(ctx context.Context, data []byte) error {
			_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:        aws.String(s.bucket),
				Key:           aws.String(key),
				Body:          bytes.NewReader(data),
				ContentLength: aws.Int64(int64(len(data))),
				ContentType:   aws.String(contentType),
				Metadata: map[string]string{
					"upload-time": time.Now().UTC().Format(time.RFC3339),
				},
			})
			if err != nil {
				return fmt.Errorf("s3 put %s: %w", key, err)
			}
			return nil
		},
	}, nil
}

// Remove deletes the object for t.
func (s *S3Backend) Remove(ctx context.Context, t Target) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(t.Key()),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", t.Key(), err)
	}
	return nil
}
