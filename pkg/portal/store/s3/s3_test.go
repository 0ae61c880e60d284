package s3

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Store_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("ObjectKeyUsesPrefix", func(t *testing.T) {
		store, err := New(Config{
			Bucket:          "portal",
			Prefix:          "site/",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "site/portal_articles.json", store.ObjectKey("portal_articles"))
		assert.Equal(t, "us-east-1", store.config.Region)
	})
}

func TestS3Store_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	endpoint := os.Getenv("AWS_S3_ENDPOINT")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	bucket := os.Getenv("AWS_S3_BUCKET")
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		t.Skip("Skipping integration test: S3/MinIO environment variables not set")
	}

	store, err := New(Config{
		Bucket:                 bucket,
		Prefix:                 "portal-test/",
		AccessKeyID:            accessKey,
		SecretAccessKey:        secretKey,
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err)
	ctx := context.Background()

	value, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, store.Put(ctx, "settings", []byte(`{"tagline":"x"}`)))
	value, err = store.Get(ctx, "settings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tagline":"x"}`, string(value))

	require.NoError(t, store.Delete(ctx, "settings"))
	value, err = store.Get(ctx, "settings")
	require.NoError(t, err)
	assert.Nil(t, value)
}
