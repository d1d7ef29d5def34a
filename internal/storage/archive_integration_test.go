package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

// startMinio starts a MinIO container and returns its host:port
func startMinio(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcminio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return endpoint
}

func roundTrip(t *testing.T, a Archiver) {
	t.Helper()
	ctx := context.Background()

	src := writeTemp(t, t.TempDir(), "acquisition_2025-04-11_13-35-48.parquet", "capture-bytes")
	key, err := a.Archive(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "captures/acquisition_2025-04-11_13-35-48.parquet", key)

	dst := filepath.Join(t.TempDir(), "restored.parquet")
	require.NoError(t, a.Fetch(ctx, key, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "capture-bytes", string(data))
}

func TestArchivers_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	endpoint := startMinio(t)
	ctx := context.Background()

	t.Run("s3", func(t *testing.T) {
		a, err := NewS3Archiver(ctx, S3Config{
			Bucket:    "scopecap-s3-" + uuid.New().String()[:8],
			Prefix:    "captures",
			Endpoint:  endpoint,
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
		})
		require.NoError(t, err)
		roundTrip(t, a)
	})

	t.Run("minio", func(t *testing.T) {
		a, err := NewMinioArchiver(ctx, MinioConfig{
			Bucket:    "scopecap-minio-" + uuid.New().String()[:8],
			Prefix:    "/captures/",
			Endpoint:  endpoint,
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
		})
		require.NoError(t, err)
		roundTrip(t, a)
	})
}
