package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"asset-sync/core/batch"
	"asset-sync/core/device"
	"asset-sync/core/enrich"
	"asset-sync/core/reconcile"
	"asset-sync/core/registry"
	"asset-sync/core/storage"
	"asset-sync/core/storage/mocks"

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
	_, err = registry.ProvisionColumns(db, enrich.Columns(enrich.DefaultPrefix))
	require.NoError(t, err)
	return db
}

func testSettings(chunkSize int) Settings {
	return Settings{
		Sync: batch.Config{
			ChunkSize:           chunkSize,
			Workers:             2,
			ChunkTimeoutSeconds: 30,
			MaxAttempts:         2,
			BackoffMillis:       1,
			EnrichInline:        true,
		},
		Jamf: reconcile.JamfConfig{SyncComputers: true, SyncMobileDevices: true},
		Huntress: enrich.Config{
			Prefix:           enrich.DefaultPrefix,
			IncidentLimit:    3,
			RemediationLimit: 3,
			BatchSize:        100,
		},
	}
}

const intuneSnapshot = `[
	{"serialNumber":"SN-1","deviceName":"LAPTOP-1","model":"Latitude 7440","manufacturer":"Dell Inc.","operatingSystem":"Windows","osVersion":"10.0"},
	{"deviceName":"NO-SERIAL","model":"Latitude 7440","manufacturer":"Dell Inc.","operatingSystem":"Windows"},
	{"serialNumber":"SN-2","deviceName":"PHONE-1","model":"iPhone 15","manufacturer":"Apple","operatingSystem":"iOS","osVersion":"17.2"}
]`

func TestSync_EndToEnd(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, nil, testSettings(2), nil, zap.NewNop())
	ctx := context.Background()

	run, err := svc.Sync(ctx, device.SourceIntune, Input{Data: []byte(intuneSnapshot)})
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, registry.RunCompleted, run.Status)
	assert.Equal(t, "request", run.Snapshot)
	assert.Equal(t, 3, run.Processed)
	assert.Equal(t, 2, run.Created)
	assert.Equal(t, 0, run.Updated)
	assert.Equal(t, 1, run.Errors)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 2, run.Synced)

	var chunks []batch.Summary
	require.NoError(t, json.Unmarshal(run.Chunks, &chunks))
	require.Len(t, chunks, 2)
	assert.Equal(t, 2, chunks[0].Size)
	assert.Equal(t, 1, chunks[1].Size)

	stored, err := svc.Run(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, registry.RunCompleted, stored.Status)
	assert.NotNil(t, stored.FinishedAt)

	// second run of the same snapshot only updates
	again, err := svc.Sync(ctx, device.SourceIntune, Input{Data: []byte(intuneSnapshot)})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 2, again.Updated)
	assert.Equal(t, 1, again.Errors)

	var assets int64
	db.Model(&registry.Asset{}).Count(&assets)
	assert.Equal(t, int64(2), assets)

	runs, err := svc.Runs(ctx, "intune", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSync_BadSnapshotFailsRun(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, nil, testSettings(2), nil, zap.NewNop())

	run, err := svc.Sync(context.Background(), device.SourceIntune, Input{Data: []byte(`{`)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadSnapshot)
	require.NotNil(t, run)
	assert.Equal(t, registry.RunFailed, run.Status)
	assert.NotEmpty(t, run.Error)
}

func TestSync_RequiresStorageWithoutInput(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, nil, testSettings(2), nil, zap.NewNop())

	_, err := svc.Sync(context.Background(), device.SourceJamf, Input{})
	assert.ErrorIs(t, err, ErrNoStorage)

	_, err = svc.Sync(context.Background(), device.Source("sccm"), Input{})
	assert.ErrorIs(t, err, device.ErrUnknownSource)
}

func TestSync_RejectsOverlappingRuns(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, nil, testSettings(2), nil, zap.NewNop())

	require.True(t, svc.acquire(device.SourceJamf))
	_, err := svc.Sync(context.Background(), device.SourceJamf, Input{Data: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrRunInProgress)
	svc.release(device.SourceJamf)

	_, err = svc.Sync(context.Background(), device.SourceJamf, Input{Data: []byte(`{}`)})
	assert.NoError(t, err)
}

func listing(objs ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objs))
	for _, o := range objs {
		ch <- o
	}
	close(ch)
	return ch
}

func TestSync_FromStorageWithInlineEnrichment(t *testing.T) {
	db := setupDB(t)
	client := new(mocks.Client)
	snapshots := storage.NewSnapshots(client, storage.Config{Bucket: "inventory", SnapshotPrefix: "snapshots", ReportPrefix: "reports"})
	svc := NewService(db, snapshots, testSettings(50), nil, zap.NewNop())

	jamf := `{"computers":[{"general":{"serial_number":"C02-ABC","name":"Ada's Mac"},"hardware":{"model":"MacBook Pro"}}],"mobile_devices":[]}`
	agents := `{"agents":[{"id":42,"serial_number":"C02-ABC","hostname":"ada-mac"}],"incidents":[],"remediations":[]}`
	now := time.Now()

	client.On("ListObjects", mock.Anything, "inventory", minio.ListObjectsOptions{Prefix: "snapshots/jamf/", Recursive: true}).
		Return(listing(minio.ObjectInfo{Key: "snapshots/jamf/2024-06-01.json", LastModified: now}))
	client.On("ListObjects", mock.Anything, "inventory", minio.ListObjectsOptions{Prefix: "snapshots/huntress/", Recursive: true}).
		Return(listing(minio.ObjectInfo{Key: "snapshots/huntress/agents.json", LastModified: now}))
	client.On("GetObject", mock.Anything, "inventory", "snapshots/jamf/2024-06-01.json", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(jamf)), nil)
	client.On("GetObject", mock.Anything, "inventory", "snapshots/huntress/agents.json", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(agents)), nil)
	client.On("PutObject", mock.Anything, "inventory", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "reports/jamf/")
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	run, err := svc.Sync(context.Background(), device.SourceJamf, Input{})
	require.NoError(t, err)
	assert.Equal(t, "snapshots/jamf/2024-06-01.json", run.Snapshot)
	assert.Equal(t, 1, run.Created)

	var hostname *string
	require.NoError(t, db.Table(registry.AssetsTable).Select("_snipeit_huntress_hostname").
		Where("serial = ?", "C02-ABC").Scan(&hostname).Error)
	require.NotNil(t, hostname)
	assert.Equal(t, "ada-mac", *hostname)
	client.AssertExpectations(t)
}

func TestSync_HuntressRunsEnrichment(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, nil, testSettings(2), nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Sync(ctx, device.SourceIntune, Input{Data: []byte(intuneSnapshot)})
	require.NoError(t, err)

	agents := `{"agents":[{"id":"a1","serial_number":"SN-1","hostname":"laptop-1"}]}`
	run, err := svc.Sync(ctx, device.SourceHuntress, Input{Data: []byte(agents)})
	require.NoError(t, err)
	assert.Equal(t, registry.RunCompleted, run.Status)
	assert.Equal(t, 2, run.Processed)
	assert.Equal(t, 1, run.Updated)
	assert.Equal(t, 1, run.Skipped)
}

func TestProcessor_StoreUnavailable(t *testing.T) {
	db := setupDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	p := NewProcessor(db, nil, nil, nil, zap.NewNop())
	_, err = p.ProcessChunk(context.Background(), batch.Chunk[device.Payload]{Sequence: 1})
	assert.ErrorContains(t, err, "store unavailable")
}
