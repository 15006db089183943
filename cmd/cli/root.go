package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-analyzer/internal/app"
	"github.com/dvloznov/expense-analyzer/internal/config"
	"github.com/dvloznov/expense-analyzer/internal/logger"
)

var (
	// cfgFile is the YAML config path; EXPENSE_CONFIG when empty.
	cfgFile string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Household expense analyzer",
	Long: `Parse pasted bank lines into categorized transactions, review and commit
them to the local ledger, and report on spending.

Example Usage:
  expenses analyze statement.txt --commit
  pbpaste | expenses analyze --ai
  expenses recurring
  expenses export csv --month 2025-08`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = os.Getenv("EXPENSE_CONFIG")
		}
		loaded, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		cfg = loaded

		level := logger.ParseLevel(cfg.LogLevel)
		if verbose {
			level = zerolog.DebugLevel
		}
		log := logger.NewConsole(os.Stderr, level)
		cmd.SetContext(logger.WithContext(cmd.Context(), log))
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the YAML configuration file (default $EXPENSE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(analyzeCmd, listCmd, recurringCmd, dashboardCmd, exportCmd, tripsCmd, syncCmd, warehouseCmd)
}

// openApp opens the configured stores. The caller closes the result.
func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.Open(cmd.Context(), cfg)
}
