package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioAPI is the subset of *minio.Client used by MinIOBackend.
type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// MinIOConfig configures NewMinIOClient.
type MinIOConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewMinIOClient connects a MinIO client with static V4 credentials.
func NewMinIOClient(cfg MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("connect minio %s: %w", cfg.Endpoint, err)
	}
	return client, nil
}

// MinIOBackend stores artifacts in a MinIO (or any S3 compatible) bucket.
type MinIOBackend struct {
	client minioAPI
	bucket string
	region string
}

// NewMinIOBackend creates a new MinIO backend.
func NewMinIOBackend(client *minio.Client, bucket, region string) *MinIOBackend {
	return &MinIOBackend{client: client, bucket: bucket, region: region}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (m *MinIOBackend) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}

	err = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region})
	if err != nil && !isBucketAlreadyExists(err) {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	return nil
}

func isBucketAlreadyExists(err error) bool {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists" {
		return true
	}
	return strings.Contains(err.Error(), "BucketAlreadyExists")
}

// Create returns a writer that uploads the object on Commit.
func (m *MinIOBackend) Create(ctx context.Context, t Target, contentType string) (Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := t.Key()

	return &objectWriter{
		ctx: ctx,
		upload: func(ctx context.Context, data []byte) error {
			_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
				minio.PutObjectOptions{ContentType: contentType})
			if err != nil {
				return fmt.Errorf("minio put %s: %w", key, err)
			}
			return nil
		},
	}, nil
}

// Remove deletes the object for t.
func (m *MinIOBackend) Remove(ctx context.Context, t Target) error {
	if err := m.client.RemoveObject(ctx, m.bucket, t.Key(), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", t.Key(), err)
	}
	return nil
}
