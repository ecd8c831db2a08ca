package checks

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"asset-sync/core/device"
	"asset-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Folders lists the bucket folders sources drop snapshots into, plus the
// report folder.
func Folders(cfg storage.Config) []string {
	sources := []device.Source{device.SourceIntune, device.SourceJamf, device.SourceHuntress}
	folders := make([]string, 0, len(sources)+1)
	for _, src := range sources {
		folders = append(folders, path.Join(cfg.SnapshotPrefix, string(src)))
	}
	return append(folders, cfg.ReportPrefix)
}

// CheckStructure returns the folders that have no object under them.
func CheckStructure(ctx context.Context, client storage.Client, bucket string, folders []string) ([]string, error) {
	var missing []string

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	for _, folder := range folders {
		opts := minio.ListObjectsOptions{
			Prefix:    folderKey(folder),
			Recursive: false,
			MaxKeys:   1,
		}

		found := false
		for obj := range client.ListObjects(ctx, bucket, opts) {
			found = obj.Err == nil
			break
		}

		if !found {
			missing = append(missing, folder)
		}
	}

	return missing, nil
}

// FixStructure creates an empty marker object for each missing folder.
func FixStructure(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger, missing []string) error {
	for _, folder := range missing {
		_, err := client.PutObject(ctx, bucket, folderKey(folder), bytes.NewReader([]byte{}), 0, minio.PutObjectOptions{})
		if err != nil {
			logger.Error("Failed to create folder", zap.String("folder", folder), zap.Error(err))
			return err
		}
		logger.Info("Created missing folder", zap.String("folder", folder))
	}
	return nil
}

func folderKey(folder string) string {
	if strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}
