package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"asset-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "asset-sync",
	Short: "Device Inventory Sync Service",
	Long: `Asset Sync reconciles device inventories exported by Intune and Jamf into
the asset registry and enriches assets with Huntress agent data.
Snapshots are read from S3 compatible storage, request bodies or local files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	// Interrupts cancel in-flight runs; the current chunk is abandoned and the run is recorded as failed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		// We use "debug" level configuration to get ISO8601 timestamps (DevConfig) instead of Epoch (ProdConfig)
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		stop()
		os.Exit(1)
	}
}
