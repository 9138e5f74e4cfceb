package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "us-east-1"})
	assert.ErrorContains(t, err, "S3_BUCKET")
}

func TestS3KeysAndURLs(t *testing.T) {
	d, err := NewS3(context.Background(), S3Config{
		Bucket:   "shop",
		Region:   "eu-west-1",
		Key:      "minio",
		Secret:   "minio123",
		Endpoint: "http://localhost:9000",
		Prefix:   "/stockroom/",
	})
	require.NoError(t, err)

	assert.Equal(t, "stockroom/products/a.jpg", d.key("products/a.jpg"))
	assert.Equal(t, "stockroom/a.jpg", d.key("../../a.jpg"))
	assert.Equal(t, "https://shop.s3.eu-west-1.amazonaws.com/stockroom/products/a.jpg", d.URL("/products/a.jpg"))

	d, err = NewS3(context.Background(), S3Config{Bucket: "shop", Region: "eu-west-1", URL: "https://cdn.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/logos/s.png", d.URL("logos/s.png"))
}
