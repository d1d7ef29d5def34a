// Package storage archives capture files to a secondary location.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archiver copies finished capture files somewhere durable.
type Archiver interface {
	// Archive stores the file at localPath and returns its archive location.
	Archive(ctx context.Context, localPath string) (string, error)
	// Fetch copies the archived file at location to destPath.
	Fetch(ctx context.Context, location, destPath string) error
}

// Config selects and configures an archive backend
type Config struct {
	Backend   string // local, s3 or minio
	Dir       string // local backend
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewArchiver creates the archiver named by cfg.Backend.
func NewArchiver(ctx context.Context, cfg Config) (Archiver, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalArchiver(cfg.Dir)
	case "s3":
		return NewS3Archiver(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	case "minio":
		return NewMinioArchiver(ctx, MinioConfig{
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
		})
	}
	return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
}

// objectKey joins prefix and the file's base name
func objectKey(prefix, localPath string) string {
	name := filepath.Base(localPath)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// copyFile copies src to dst, creating dst's directory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
