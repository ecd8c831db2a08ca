package cmd

import (
	"fmt"
	"sort"

	"asset-sync/core/enrich"
	"asset-sync/core/registry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// assetCmd shows what the registry holds for one serial.
var assetCmd = &cobra.Command{
	Use:   "asset <serial>",
	Short: "View an asset and its enrichment fields",
	Long:  `Looks up an asset by serial, soft-deleted rows included, and prints its registry fields and stored enrichment values.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(true)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		rt.log.Debug("Looking up asset", zap.String("serial", args[0]))
		asset, err := registry.FindAsset(ctx, rt.db, args[0])
		if err != nil {
			return err
		}
		values, err := enrich.Stored(ctx, rt.db, rt.cfg.Huntress.Prefix, asset.ID)
		if err != nil {
			return err
		}

		fmt.Println("\n--- Asset Detail View ---")
		fmt.Printf("ID:             %d\n", asset.ID)
		fmt.Printf("Serial:         %s\n", asset.Serial)
		fmt.Printf("Asset Tag:      %s\n", asset.AssetTag)
		fmt.Printf("Name:           %s\n", asset.Name)
		fmt.Printf("Model ID:       %d\n", asset.ModelID)
		fmt.Printf("Status ID:      %d\n", asset.StatusID)
		if asset.AssignedTo != nil {
			fmt.Printf("Assigned To:    user %d\n", *asset.AssignedTo)
		}
		fmt.Println("-------------------------")

		state := "\033[32mLIVE\033[0m"
		if asset.DeletedAt.Valid {
			state = "\033[33mSOFT-DELETED\033[0m"
		}
		fmt.Printf("State:          %s\n", state)

		if len(values) > 0 {
			cols := make([]string, 0, len(values))
			for col := range values {
				cols = append(cols, col)
			}
			sort.Strings(cols)

			fmt.Println("\nEnrichment:")
			for _, col := range cols {
				fmt.Printf("- %s: %s\n", col, values[col])
			}
		}
		if asset.Notes != "" {
			fmt.Printf("\nNotes:\n%s\n", asset.Notes)
		}
		fmt.Println("-------------------------")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(assetCmd)
}
