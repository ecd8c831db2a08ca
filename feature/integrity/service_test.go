package integrity

import (
	"context"
	"fmt"
	"testing"

	"asset-sync/core/enrich"
	"asset-sync/core/registry"
	"asset-sync/core/storage"
	"asset-sync/core/storage/mocks"
	"asset-sync/feature/integrity/checks"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, registry.Migrate(db))
	return db
}

func testConfig() storage.Config {
	return storage.Config{Bucket: "test-bucket", SnapshotPrefix: "snapshots", ReportPrefix: "reports"}
}

func emptyListing() <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

func TestService_Structure(t *testing.T) {
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, testConfig(), nil, nil, zap.NewNop())

	t.Run("CheckStructure", func(t *testing.T) {
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(emptyListing())

		missing, err := svc.CheckStructure(context.Background())
		assert.NoError(t, err)
		assert.Contains(t, missing, "snapshots/intune")
		assert.Contains(t, missing, "reports")
	})

	t.Run("FixStructure", func(t *testing.T) {
		mockClient.On("PutObject", mock.Anything, "test-bucket", "reports/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)
		err := svc.FixStructure(context.Background(), []string{"reports"})
		assert.NoError(t, err)
	})
}

func TestService_Unconfigured(t *testing.T) {
	svc := NewService(nil, testConfig(), nil, nil, zap.NewNop())

	_, err := svc.CheckStructure(context.Background())
	assert.ErrorIs(t, err, ErrNoStorage)
	_, err = svc.CheckSchema()
	assert.ErrorIs(t, err, ErrNoDatabase)
	_, err = svc.CheckColumns()
	assert.ErrorIs(t, err, ErrNoDatabase)
	_, err = svc.CheckSerials(context.Background())
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestService_Columns(t *testing.T) {
	db := setupDB(t)
	columns := enrich.Columns(enrich.DefaultPrefix)
	svc := NewService(nil, testConfig(), db, columns, zap.NewNop())

	missing, err := svc.CheckColumns()
	require.NoError(t, err)
	assert.Len(t, missing, len(columns))

	added, err := svc.FixColumns(missing[:2])
	require.NoError(t, err)
	assert.Equal(t, missing[:2], added)

	missing, err = svc.CheckColumns()
	require.NoError(t, err)
	assert.Len(t, missing, len(columns)-2)
}

func TestService_CheckAll(t *testing.T) {
	db := setupDB(t)
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, assert.AnError)

	svc := NewService(mockClient, testConfig(), db, enrich.Columns(enrich.DefaultPrefix), zap.NewNop())
	report := svc.CheckAll(context.Background())

	assert.Equal(t, "error", report["structure"].(map[string]any)["status"])

	schema, ok := report["schema"].(*checks.SchemaReport)
	require.True(t, ok)
	assert.True(t, schema.Matched)

	assert.Equal(t, "warning", report["columns"].(map[string]any)["status"])
	assert.Equal(t, "ok", report["serials"].(map[string]any)["status"])
}
