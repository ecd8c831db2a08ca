// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface so storage interactions can be
// mocked in unit tests (see core/storage/mocks). Both AWS S3 and self-hosted MinIO work.
//
// # Snapshots
//
// Inventory sources are exported ahead of time into the configured bucket:
//
//	snapshots/intune/<anything>.json
//	snapshots/jamf/<anything>.json
//	snapshots/huntress/<anything>.json
//
// Snapshots.ReadLatest picks the most recently modified export of a source. Run reports
// are written back as reports/<run id>.json. ReadFile covers exports on local disk.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	snaps := storage.NewSnapshots(client, cfg.Storage)
//	data, key, err := snaps.ReadLatest(ctx, "jamf")
package storage
