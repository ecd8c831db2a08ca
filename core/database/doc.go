// Package database manages the connection to the asset registry store.
//
// It wraps GORM and supports MySQL (the production default), PostgreSQL and SQLite
// (used for local runs and tests). Connect applies the configured timeout to the
// DSN and to the initial ping.
//
// # Inspection
//
// GetTableColumns and ColumnSet read live column definitions. The enrichment merger
// uses them to find which custom columns are provisioned, and the integrity checks
// use them to report missing ones.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("database unavailable", zap.Error(err))
//	}
package database
