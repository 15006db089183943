package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/export"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
)

var (
	exportIDs    []string
	exportFilter ledger.Filter
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:       "export csv|xlsx|zip",
	Short:     "Export transactions as CSV, XLSX or a reimbursement ZIP",
	Long:      "Export writes the transactions named by --ids, or those matching the filters when no IDs are given.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"csv", "xlsx", "zip"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]
		ctx := cmd.Context()

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var txns []domain.Transaction
		if len(exportIDs) > 0 {
			txns, err = a.Repo.Select(ctx, exportIDs)
		} else {
			txns, err = a.Repo.Filter(ctx, exportFilter)
		}
		if err != nil {
			return err
		}
		if len(txns) == 0 {
			return fmt.Errorf("nothing to export")
		}

		var buf bytes.Buffer
		attached := 0
		switch format {
		case "csv":
			err = export.WriteCSV(&buf, txns)
		case "xlsx":
			err = export.WriteXLSX(&buf, txns)
		case "zip":
			attached, err = export.WriteZIP(ctx, &buf, txns, a.Blobs)
		}
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = export.FileName(format, time.Now())
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}

		msg := fmt.Sprintf("Exported %d transactions to %s", len(txns), out)
		if format == "zip" {
			msg += fmt.Sprintf(" with %d attachments", attached)
		}
		creditColor.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportIDs, "ids", nil, "Transaction IDs to export (comma separated)")
	exportCmd.Flags().StringVar(&exportFilter.Category, "category", "", "Only this category")
	exportCmd.Flags().StringVar(&exportFilter.Tag, "tag", "", "Only transactions carrying this tag")
	exportCmd.Flags().StringVar(&exportFilter.Month, "month", "", "Only this month (YYYY-MM)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default transactions_<date>.<format>)")
}
