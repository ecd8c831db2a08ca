package cmd

import (
	"asset-sync/core/device"

	"github.com/spf13/cobra"
)

// enrichCmd refreshes the enrichment fields of every asset.
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Refresh Huntress enrichment fields on every asset",
	Long: `Merges the latest Huntress agent snapshot into every live asset with a serial.
Assets without a matching agent have their enrichment fields cleared.
Equivalent to "sync huntress".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, device.SourceHuntress)
	},
}

func init() {
	RootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().StringVar(&snapshotFile, "file", "", "Read the agent snapshot from a local file")
	enrichCmd.Flags().StringVar(&snapshotKey, "key", "", "Read the agent snapshot from this object key")
}
