package cmd

import (
	"context"
	"fmt"

	"asset-sync/core/enrich"
	"asset-sync/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on the registry and snapshot bucket",
	Long:  `Checks the bucket folder layout, the registry schema, the enrichment columns and duplicate serials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, true, true, true)
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix the snapshot folder structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false, false, false)
	},
}

// schemaCmd represents the integrity schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the registry schema against the models",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true, false, false)
	},
}

// columnsCmd represents the integrity columns command
var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Check and provision the enrichment columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, false, true, false)
	},
}

// serialsCmd represents the integrity serials command
var serialsCmd = &cobra.Command{
	Use:   "serials",
	Short: "List serials shared by more than one live asset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(structureCmd, schemaCmd, columnsCmd, serialsCmd)

	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create missing folders")
	columnsCmd.Flags().BoolVar(&fixFlag, "fix", false, "Provision missing columns")
}

func runIntegrityChecks(ctx context.Context, runStructure, runSchema, runColumns, runSerials bool) error {
	rt, err := bootstrap(false)
	if err != nil {
		return err
	}
	logg := rt.log
	defer logg.Sync()

	svc := integrity.NewService(rt.store, rt.cfg.Storage, rt.db, enrich.Columns(rt.cfg.Huntress.Prefix), logg)
	failed := 0

	if runStructure {
		logg.Info("Checking folder structure...")
		missing, err := svc.CheckStructure(ctx)
		switch {
		case err != nil:
			logg.Error("Structure check failed", zap.Error(err))
			failed++
		case len(missing) == 0:
			logg.Info("Structure is intact.")
		default:
			logg.Warn("Missing folders detected", zap.Strings("missing", missing))
			if fixFlag {
				logg.Info("Fixing missing folders...")
				if err := svc.FixStructure(ctx, missing); err != nil {
					return fmt.Errorf("failed to fix structure: %w", err)
				}
				logg.Info("Structure fixed successfully.")
			} else {
				logg.Info("Run 'integrity structure --fix' to create missing folders.")
			}
		}
	}

	if runSchema {
		logg.Info("Checking registry schema...")
		report, err := svc.CheckSchema()
		switch {
		case err != nil:
			logg.Error("Schema check failed", zap.Error(err))
			failed++
		case report.Matched:
			logg.Info("Registry schema matches the models.", zap.String("dialect", report.Dialect))
		default:
			logg.Warn("Registry schema mismatches found", zap.String("dialect", report.Dialect))
			for table, tbl := range report.Tables {
				if tbl.Status == "missing" {
					logg.Warn("Missing Table", zap.String("table", table))
				}
				if len(tbl.MissingColumns) > 0 {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tbl.MissingColumns))
				}
				if len(tbl.TypeMismatches) > 0 {
					logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tbl.TypeMismatches))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
			logg.Info("Run 'migrate' to create or update the registry tables.")
		}
	}

	if runColumns {
		logg.Info("Checking enrichment columns...")
		missing, err := svc.CheckColumns()
		switch {
		case err != nil:
			logg.Error("Columns check failed", zap.Error(err))
			failed++
		case len(missing) == 0:
			logg.Info("Enrichment columns are provisioned.")
		default:
			logg.Warn("Missing enrichment columns detected", zap.Strings("missing", missing))
			if fixFlag {
				added, err := svc.FixColumns(missing)
				if err != nil {
					return fmt.Errorf("failed to provision columns: %w", err)
				}
				logg.Info("Enrichment columns provisioned.", zap.Int("added", len(added)))
			} else {
				logg.Info("Run 'integrity columns --fix' to provision them.")
			}
		}
	}

	if runSerials {
		logg.Info("Checking for duplicate serials...")
		dups, err := svc.CheckSerials(ctx)
		switch {
		case err != nil:
			logg.Error("Serials check failed", zap.Error(err))
			failed++
		case len(dups) == 0:
			logg.Info("No duplicate serials.")
		default:
			for _, d := range dups {
				logg.Warn("Duplicate serial", zap.String("serial", d.Serial), zap.Int("count", d.Count))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d integrity checks could not run", failed)
	}
	return nil
}
