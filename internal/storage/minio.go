package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioArchiver uploads captures with the MinIO client, for S3-compatible
// gateways that expect it
type MinioArchiver struct {
	client *minio.Client
	bucket string
	prefix string
}

// MinioConfig holds configuration for the MinIO archiver
type MinioConfig struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewMinioArchiver connects to cfg.Endpoint and creates the bucket if missing
func NewMinioArchiver(ctx context.Context, cfg MinioConfig) (*MinioArchiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("ARCHIVE_BUCKET is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("ARCHIVE_ENDPOINT is required for the minio backend")
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL || strings.HasPrefix(cfg.Endpoint, "https://"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioArchiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Archive uploads localPath and returns its object key
func (a *MinioArchiver) Archive(ctx context.Context, localPath string) (string, error) {
	key := objectKey(a.prefix, localPath)
	_, err := a.client.FPutObject(ctx, a.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: parquetContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return key, nil
}

// Fetch downloads the object at key into destPath
func (a *MinioArchiver) Fetch(ctx context.Context, key, destPath string) error {
	if err := a.client.FGetObject(ctx, a.bucket, key, destPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	return nil
}
