package cmd

import (
	"fmt"

	"asset-sync/core/enrich"
	"asset-sync/core/registry"
	"asset-sync/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedStatuses bool

// migrateCmd prepares the registry schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the registry tables and enrichment columns",
	Long: `Auto-migrates every registry table, provisions the enrichment columns on
the assets table, creates the snapshot bucket when storage is reachable and
optionally seeds the default status labels.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer rt.log.Sync()
		db := rt.db.WithContext(cmd.Context())

		rt.log.Info("Migrating registry tables...")
		if err := registry.Migrate(db); err != nil {
			return err
		}

		added, err := registry.ProvisionColumns(db, enrich.Columns(rt.cfg.Huntress.Prefix))
		if err != nil {
			return fmt.Errorf("provision enrichment columns: %w", err)
		}
		rt.log.Info("Enrichment columns provisioned", zap.Int("added", len(added)))

		if seedStatuses {
			n, err := registry.SeedStatuses(db)
			if err != nil {
				return err
			}
			rt.log.Info("Status labels seeded", zap.Int("created", n))
		}

		if rt.store != nil {
			created, err := storage.EnsureBucket(cmd.Context(), rt.store, rt.cfg.Storage)
			if err != nil {
				rt.log.Warn("Snapshot bucket unavailable", zap.Error(err))
			} else if created {
				rt.log.Info("Snapshot bucket created", zap.String("bucket", rt.cfg.Storage.Bucket))
			}
		}

		rt.log.Info("Migration completed")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&seedStatuses, "seed", false, "Seed the default status labels")
}
