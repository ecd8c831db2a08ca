package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
)

// ErrNoSnapshot is returned when a source folder holds no JSON export.
var ErrNoSnapshot = errors.New("no snapshot found")

// Snapshots reads source exports and writes run reports in one bucket.
type Snapshots struct {
	client Client
	cfg    Config
}

// NewSnapshots binds the snapshot store to a client and bucket layout.
func NewSnapshots(client Client, cfg Config) *Snapshots {
	return &Snapshots{client: client, cfg: cfg}
}

// Folder returns the object prefix holding exports of the given source.
func (s *Snapshots) Folder(source string) string {
	return path.Join(s.cfg.SnapshotPrefix, source) + "/"
}

// Latest finds the most recently modified .json object under the source folder.
func (s *Snapshots) Latest(ctx context.Context, source string) (string, error) {
	var (
		newest minio.ObjectInfo
		found  bool
	)

	objects := s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    s.Folder(source),
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return "", fmt.Errorf("list %s: %w", s.Folder(source), obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		if !found || obj.LastModified.After(newest.LastModified) {
			newest = obj
			found = true
		}
	}

	if !found {
		return "", fmt.Errorf("%s: %w", source, ErrNoSnapshot)
	}
	return newest.Key, nil
}

// Read downloads an object fully.
func (s *Snapshots) Read(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// ReadLatest is Latest followed by Read. It returns the object key alongside the data.
func (s *Snapshots) ReadLatest(ctx context.Context, source string) ([]byte, string, error) {
	key, err := s.Latest(ctx, source)
	if err != nil {
		return nil, "", err
	}
	data, err := s.Read(ctx, key)
	if err != nil {
		return nil, key, err
	}
	return data, key, nil
}

// WriteReport uploads v as indented JSON to <report_prefix>/<name>.json.
func (s *Snapshots) WriteReport(ctx context.Context, name string, v any) (string, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	key := path.Join(s.cfg.ReportPrefix, name+".json")
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// ReadFile loads a snapshot exported to the local filesystem.
func ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return data, nil
}
