package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "erp-exports",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "localhost:9000",
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := validConfig()
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials return error", func(t *testing.T) {
		cfg := validConfig()
		cfg.SecretKey = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials are required")
	})

	t.Run("defaults presign expiration to 15 minutes", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validConfig())
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
		assert.Equal(t, "erp-exports", s.GetBucket())
	})

	t.Run("options override config", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validConfig(), WithPresignExpiration(time.Hour), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		ssl      bool
		expected string
	}{
		{"empty uses local default", "", false, "http://localhost:9000"},
		{"adds http prefix", "minio:9000", false, "http://minio:9000"},
		{"adds https prefix with ssl", "s3.example.com", true, "https://s3.example.com"},
		{"keeps explicit scheme", "https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.endpoint, tt.ssl)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)

	t.Run("empty storage key returns error", func(t *testing.T) {
		_, _, err := s.GenerateDownloadURL(context.Background(), "", 0)
		assert.Error(t, err)
	})

	t.Run("presigns without contacting the server", func(t *testing.T) {
		url, expiresAt, err := s.GenerateDownloadURL(context.Background(), "exports/2026-03.csv", 0)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "http://localhost:9000/erp-exports/exports/2026-03.csv"))
		assert.Contains(t, url, "X-Amz-Signature")
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
	})
}

func TestS3ObjectStorage_Upload_ValidationOnly(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)

	err = s.Upload(context.Background(), "", []byte("x"), "text/csv")
	assert.Error(t, err)
}

func TestMemoryObjectStorage(t *testing.T) {
	s := NewMemoryObjectStorage("http://files.local")
	ctx := context.Background()

	_, _, err := s.GenerateDownloadURL(ctx, "missing.csv", time.Minute)
	assert.Error(t, err)

	require.NoError(t, s.Upload(ctx, "a.csv", []byte("id\n1\n"), "text/csv"))
	url, _, err := s.GenerateDownloadURL(ctx, "a.csv", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://files.local/a.csv?expires="))

	obj, ok := s.Get("a.csv")
	require.True(t, ok)
	assert.Equal(t, "text/csv", obj.ContentType)
}
