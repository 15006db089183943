package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/notionsync"
	"github.com/dvloznov/expense-analyzer/internal/sheets"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the ledger to a remote destination (additive only)",
}

var (
	sheetsCfg  domain.SheetsConfig
	sheetsSave bool
)

var syncSheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Append new transactions to the configured Google Sheet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		c := sheetsCfg
		if c.SheetID == "" {
			stored, err := a.Repo.SheetsConfig(ctx)
			if err != nil {
				return err
			}
			if stored != nil {
				c = *stored
			}
		}
		if err := sheets.ValidateConfig(c); err != nil {
			return fmt.Errorf("sheets: %w (pass --sheet-id, --client-email and --private-key)", err)
		}
		if sheetsSave {
			if err := a.Repo.SaveSheetsConfig(ctx, c); err != nil {
				return err
			}
		}

		txns, err := a.Repo.Transactions(ctx)
		if err != nil {
			return err
		}
		svc, err := sheets.NewService(ctx, c)
		if err != nil {
			return err
		}
		result, err := sheets.Sync(ctx, svc, c, txns)
		if err != nil {
			return err
		}
		creditColor.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	},
}

var notionDryRun bool

var syncNotionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Create Notion pages for transactions not yet in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		txns, err := a.Repo.Transactions(cmd.Context())
		if err != nil {
			return err
		}
		result, err := notionsync.SyncTransactions(cmd.Context(), a.Notion(), cfg.NotionDBID, txns, notionDryRun)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		if result.Failed > 0 {
			warnColor.Fprintf(cmd.OutOrStdout(), " %d pages failed ", result.Failed)
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

var warehouseCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Analytics warehouse operations",
}

var warehouseExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Stream the ledger into the configured BigQuery table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		exporter, err := a.Warehouse(ctx)
		if err != nil {
			return err
		}
		if exporter == nil {
			return fmt.Errorf("warehouse export needs BIGQUERY_PROJECT")
		}
		defer exporter.Close()

		txns, err := a.Repo.Transactions(ctx)
		if err != nil {
			return err
		}
		result, err := exporter.Export(ctx, txns)
		if err != nil {
			return err
		}
		creditColor.Fprintf(cmd.OutOrStdout(), "Inserted %d rows (%d skipped)\n", result.Inserted, result.Skipped)
		return nil
	},
}

func init() {
	syncSheetsCmd.Flags().StringVar(&sheetsCfg.SheetID, "sheet-id", "", "Spreadsheet ID (default: stored settings)")
	syncSheetsCmd.Flags().StringVar(&sheetsCfg.ClientEmail, "client-email", "", "Service account email")
	syncSheetsCmd.Flags().StringVar(&sheetsCfg.PrivateKey, "private-key", "", "Service account private key")
	syncSheetsCmd.Flags().BoolVar(&sheetsSave, "save", false, "Store the given settings for later runs")

	syncNotionCmd.Flags().BoolVar(&notionDryRun, "dry-run", false, "Report what would be created without writing")

	syncCmd.AddCommand(syncSheetsCmd, syncNotionCmd)
	warehouseCmd.AddCommand(warehouseExportCmd)
}
