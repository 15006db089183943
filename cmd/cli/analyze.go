package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-analyzer/internal/attachments"
	"github.com/dvloznov/expense-analyzer/internal/classifier"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
	"github.com/dvloznov/expense-analyzer/internal/parser"
	"github.com/dvloznov/expense-analyzer/internal/pipeline"
)

var (
	analyzeCommit bool
	analyzeAI     bool
	analyzeModel  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file | gs://bucket/object | -]",
	Short: "Parse pasted bank lines into categorized transactions",
	Long: `Analyze reads statement lines from a file, a gs:// object or stdin, runs
the keyword rules and, with --ai, the configured classifier over what is left
uncategorized. Without --commit the result is only printed.

Lines that cannot be parsed are shown as UNPARSED and never committed.
Ctrl-C during the AI pass keeps what has been classified so far.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeCommit, "commit", false, "Commit the parsed transactions to the ledger")
	analyzeCmd.Flags().BoolVar(&analyzeAI, "ai", false, "Refine uncategorized debits with the configured classifier")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Classifier model override")
}

// readInput loads the statement text named by arg.
func readInput(ctx context.Context, arg string, stdin io.Reader) (string, error) {
	switch {
	case arg == "" || arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(arg, "gs://"):
		data, err := attachments.FetchFromGCS(ctx, arg)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", arg, err)
		}
		return string(data), nil
	}
}

// committable drops the placeholder rows the parser emits for bad lines.
func committable(items []domain.Transaction) (keep []domain.Transaction, dropped int) {
	for _, it := range items {
		if parser.IsPlaceholder(it) {
			dropped++
			continue
		}
		keep = append(keep, it)
	}
	return keep, dropped
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	log := logger.FromContext(ctx)

	var arg string
	if len(args) == 1 {
		arg = args[0]
	}
	input, err := readInput(ctx, arg, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("no input lines")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	trips, err := a.Repo.Trips(ctx)
	if err != nil {
		return err
	}

	opts := pipeline.Options{Model: analyzeModel}
	if analyzeAI {
		oracle, err := a.Classifier(ctx)
		if err != nil {
			return err
		}
		if oracle == nil {
			return fmt.Errorf("no classifier configured (set EXPENSE_CLASSIFIER to genai or bayes)")
		}
		opts.Classifier = oracle
		opts.Labels = a.Labels()
		opts.OnProgress = func(done, total int) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rClassifying %d/%d", done, total)
		}
	}

	batch, err := pipeline.Analyze(ctx, input, trips, opts)
	if opts.OnProgress != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	cancelled := errors.Is(err, context.Canceled) || errors.Is(err, classifier.ErrCancelled)
	if err != nil && !cancelled {
		return err
	}
	if cancelled {
		log.Warn().Msg("AI pass cancelled, showing partial results")
	}

	printTransactions(cmd.OutOrStdout(), batch.Items())

	if !analyzeCommit {
		return nil
	}
	if cancelled {
		return fmt.Errorf("not committing a cancelled analysis")
	}

	keep, dropped := committable(batch.Items())
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("Skipping unparsed lines")
	}
	n, err := a.Repo.CommitBatch(ctx, keep)
	if err != nil {
		return err
	}
	creditColor.Fprintf(cmd.OutOrStdout(), "Committed %d transactions.\n", n)
	return nil
}
