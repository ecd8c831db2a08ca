package checks

import (
	"context"
	"testing"

	"asset-sync/core/storage"
	"asset-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func testFolders() []string {
	return Folders(storage.Config{SnapshotPrefix: "snapshots", ReportPrefix: "reports"})
}

func TestFolders(t *testing.T) {
	assert.Equal(t, []string{
		"snapshots/intune",
		"snapshots/jamf",
		"snapshots/huntress",
		"reports",
	}, testFolders())
}

func TestCheckStructure(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "inventory").Return(false, nil)

		_, err := CheckStructure(context.Background(), mockClient, "inventory", testFolders())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("All Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "inventory").Return(true, nil)
		ch := make(chan minio.ObjectInfo)
		close(ch)
		mockClient.On("ListObjects", mock.Anything, "inventory", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

		missing, err := CheckStructure(context.Background(), mockClient, "inventory", testFolders())
		assert.NoError(t, err)
		assert.Len(t, missing, 4)
	})

	t.Run("All Present", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "inventory").Return(true, nil)

		for _, folder := range testFolders() {
			ch := make(chan minio.ObjectInfo, 1)
			ch <- minio.ObjectInfo{Key: folder + "/"}
			close(ch)
			mockClient.On("ListObjects", mock.Anything, "inventory", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
				return opts.Prefix == folder+"/"
			})).Return((<-chan minio.ObjectInfo)(ch))
		}

		missing, err := CheckStructure(context.Background(), mockClient, "inventory", testFolders())
		assert.NoError(t, err)
		assert.Len(t, missing, 0)
	})

	t.Run("Listing Error Counts As Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "inventory").Return(true, nil)
		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Err: assert.AnError}
		close(ch)
		mockClient.On("ListObjects", mock.Anything, "inventory", mock.Anything).Return((<-chan minio.ObjectInfo)(ch)).Once()

		missing, err := CheckStructure(context.Background(), mockClient, "inventory", []string{"reports"})
		assert.NoError(t, err)
		assert.Equal(t, []string{"reports"}, missing)
	})
}

func TestFixStructure(t *testing.T) {
	logger := zap.NewNop()
	mockClient := new(mocks.Client)

	mockClient.On("PutObject", mock.Anything, "inventory", "snapshots/jamf/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	err := FixStructure(context.Background(), mockClient, "inventory", logger, []string{"snapshots/jamf"})
	assert.NoError(t, err)
	mockClient.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestFixStructure_Error(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "inventory", mock.Anything, mock.Anything, int64(0), mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	err := FixStructure(context.Background(), mockClient, "inventory", zap.NewNop(), []string{"reports", "snapshots/intune"})
	assert.ErrorIs(t, err, assert.AnError)
	mockClient.AssertNumberOfCalls(t, "PutObject", 1)
}
