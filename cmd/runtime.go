package cmd

import (
	"fmt"

	"asset-sync/core/config"
	"asset-sync/core/database"
	"asset-sync/core/logger"
	"asset-sync/core/storage"
	syncfeature "asset-sync/feature/sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime bundles what every command needs after start-up.
type runtime struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *gorm.DB
	store     storage.Client
	snapshots *storage.Snapshots
}

// bootstrap loads configuration, builds the logger and connects the
// backends. A missing database is fatal only when requireDB is set; a
// storage client that cannot be built leaves snapshots nil.
func bootstrap(requireDB bool) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	rt := &runtime{cfg: cfg, log: logg}

	if conn, err := database.Connect(cfg.Database); err != nil {
		if requireDB {
			return nil, fmt.Errorf("database connection required: %w", err)
		}
		logg.Warn("Optional database connection failed", zap.Error(err))
	} else {
		rt.db = conn
		logg.Info("Connected to asset registry", zap.String("driver", cfg.Database.Driver))
	}

	if store, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Storage client unavailable, snapshots must be passed inline", zap.Error(err))
	} else {
		rt.store = store
		rt.snapshots = storage.NewSnapshots(store, cfg.Storage)
	}

	return rt, nil
}

// settings gathers the sync-related configuration sections.
func (rt *runtime) settings() syncfeature.Settings {
	return syncfeature.Settings{
		Sync:     rt.cfg.Sync,
		Intune:   rt.cfg.Intune,
		Jamf:     rt.cfg.Jamf,
		Huntress: rt.cfg.Huntress,
	}
}
