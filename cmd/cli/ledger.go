package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-analyzer/internal/dashboard"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/recurring"
)

var listFilter ledger.Filter

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List committed transactions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		txns, err := a.Repo.Filter(cmd.Context(), listFilter)
		if err != nil {
			return err
		}
		printTransactions(cmd.OutOrStdout(), txns)
		return nil
	},
}

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Show detected recurring payments",
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
		payments := recurring.Detect(txns, time.Now())
		printRecurring(cmd.OutOrStdout(), payments, recurring.MonthlyTotal(payments))
		return nil
	},
}

var (
	dashRange string
	dashMonth string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summarize spending for a date range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rng, err := dashboard.ParseRange(dashRange)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		txns, err := a.Repo.Transactions(ctx)
		if err != nil {
			return err
		}
		trips, err := a.Repo.Trips(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		printSummary(cmd.OutOrStdout(), dashboard.Compute(dashboard.FilterRange(txns, rng, dashMonth, now), trips, now))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFilter.Category, "category", "", "Only this category")
	listCmd.Flags().StringVar(&listFilter.Tag, "tag", "", "Only transactions carrying this tag")
	listCmd.Flags().StringVar(&listFilter.Month, "month", "", "Only this month (YYYY-MM)")

	dashboardCmd.Flags().StringVar(&dashRange, "range", "this-month", "all | this-month | last-month | this-year | last-year | specific-month")
	dashboardCmd.Flags().StringVar(&dashMonth, "month", "", "Month for --range specific-month (YYYY-MM)")
}
