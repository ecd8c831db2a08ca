// Package config provides configuration management for asset-sync.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file. Defaults come from the `default` struct tags of
// each section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: registry connection details (mysql, postgres or sqlite)
//   - Storage: S3/MinIO credentials, bucket and snapshot/report folders
//   - Log: Logging level and format
//   - Metrics: Prometheus endpoint
//   - Sync: chunk size, workers, retries and reference cache TTL
//   - Intune, Jamf: per-source override ids and toggles
//   - Huntress: enrichment column prefix and history limits
//
// Environment keys are the upper-cased dotted path, e.g. SYNC_CHUNK_SIZE or
// JAMF_AUTO_ASSIGN_USERS.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.ChunkSize)
package config
