package storage

import (
	"context"
	"testing"

	"asset-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{
		Endpoint:  "https://s3.amazonaws.com",
		AccessKey: "testkey",
		SecretKey: "testsecret",
		Bucket:    "inventory",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"Bare", "localhost:9000", false, "localhost:9000", false},
		{"BareSSL", "minio.internal:9000", true, "minio.internal:9000", true},
		{"HTTP", "http://localhost:9000", false, "localhost:9000", false},
		{"HTTPS forces TLS", "https://s3.amazonaws.com", false, "s3.amazonaws.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure := splitEndpoint(tt.raw, tt.useSSL)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestEnsureBucket(t *testing.T) {
	cfg := Config{Bucket: "inventory", Region: "eu-west-1"}
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "inventory").Return(true, nil)

		created, err := EnsureBucket(ctx, m, cfg)
		require.NoError(t, err)
		assert.False(t, created)
		m.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "inventory").Return(false, nil)
		m.On("MakeBucket", mock.Anything, "inventory", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

		created, err := EnsureBucket(ctx, m, cfg)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("CheckFails", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "inventory").Return(false, assert.AnError)

		_, err := EnsureBucket(ctx, m, cfg)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
