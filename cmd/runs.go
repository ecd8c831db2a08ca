package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	syncfeature "asset-sync/feature/sync"

	"github.com/spf13/cobra"
)

var (
	runsSource string
	runsLimit  int
)

// runsCmd lists the persisted run history.
var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List recent sync runs, or show one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(true)
		if err != nil {
			return err
		}
		svc := syncfeature.NewService(rt.db, rt.snapshots, rt.settings(), nil, rt.log)

		if len(args) == 1 {
			run, err := svc.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRun(run)
			return nil
		}

		runs, err := svc.Runs(cmd.Context(), runsSource, runsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tSTARTED\tPROCESSED\tCREATED\tUPDATED\tERRORS")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				r.ID, r.Source, r.Status, r.StartedAt.Format(time.RFC3339),
				r.Processed, r.Created, r.Updated, r.Errors)
		}
		return w.Flush()
	},
}

func init() {
	RootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runsSource, "source", "", "Only list runs of this source")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs")
}
