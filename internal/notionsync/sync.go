// Package notionsync pushes ledger transactions into a Notion database.
// The sync is additive: pages already carrying a transaction's ID are left
// alone and nothing is ever updated or archived.
package notionsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
)

const (
	// BatchSize defines the number of transactions logged per progress batch.
	BatchSize = 100
)

// ErrMissingConfig is returned when the token or database ID is empty.
var ErrMissingConfig = errors.New("missing Notion configuration")

// Result reports what a sync did.
type Result struct {
	Success     bool   `json:"success"`
	SyncedCount int    `json:"syncedCount"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Message     string `json:"message"`
}

// SyncTransactions creates a Notion page for every transaction whose ID is
// not yet present in the database. Individual page failures are logged and
// counted; query failures abort the sync.
func SyncTransactions(ctx context.Context, pages Pages, notionDBID string, transactions []domain.Transaction, dryRun bool) (Result, error) {
	log := logger.FromContext(ctx)

	if notionDBID == "" || pages == nil {
		return Result{}, fmt.Errorf("SyncTransactions: %w", ErrMissingConfig)
	}

	log.Info().
		Bool("dry_run", dryRun).
		Int("transaction_count", len(transactions)).
		Msg("Starting transaction sync to Notion")

	// Query all existing transactions from Notion
	existingTransactionIDs, err := existingIDs(ctx, pages, notionDBID)
	if err != nil {
		return Result{}, fmt.Errorf("SyncTransactions: failed to query Notion pages: %w", err)
	}

	log.Info().Int("existing_ids", len(existingTransactionIDs)).Msg("Retrieved existing Notion pages")

	var res Result
	for i := 0; i < len(transactions); i += BatchSize {
		end := i + BatchSize
		if end > len(transactions) {
			end = len(transactions)
		}

		log.Debug().
			Int("batch_start", i).
			Int("batch_end", end).
			Msg("Processing batch")

		for _, tx := range transactions[i:end] {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("SyncTransactions: %w", err)
			}

			if existingTransactionIDs[tx.ID] {
				res.Skipped++
				continue
			}

			if dryRun {
				log.Info().
					Str("transaction_id", tx.ID).
					Msg("[DRY RUN] Would create new Notion page")
				res.SyncedCount++
				continue
			}

			pageID, err := pages.AddPage(ctx, notionDBID, TransactionToNotionProperties(tx))
			if err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", tx.ID).
					Msg("Failed to create Notion page")
				res.Failed++
				continue
			}
			log.Info().
				Str("transaction_id", tx.ID).
				Str("page_id", string(pageID)).
				Msg("Created Notion page")
			// Guards against duplicate IDs within the same input.
			existingTransactionIDs[tx.ID] = true
			res.SyncedCount++
		}
	}

	res.Success = res.Failed == 0
	res.Message = fmt.Sprintf("Synced %d new transactions to Notion.", res.SyncedCount)
	if dryRun {
		res.Message = fmt.Sprintf("[DRY RUN] Would sync %d new transactions to Notion.", res.SyncedCount)
	}

	log.Info().
		Int("created", res.SyncedCount).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Int("total", len(transactions)).
		Msg("Transaction sync completed")

	return res, nil
}

// existingIDs walks every page of the database and collects the transaction
// IDs already stored there.
func existingIDs(ctx context.Context, pages Pages, databaseID string) (map[string]bool, error) {
	ids := make(map[string]bool)
	var cursor notionapi.Cursor
	for {
		batch, next, err := pages.ListPages(ctx, databaseID, cursor)
		if err != nil {
			return nil, fmt.Errorf("existingIDs: %w", err)
		}
		for _, page := range batch {
			if txID := extractTransactionID(page); txID != "" {
				ids[txID] = true
			}
		}
		if next == "" {
			return ids, nil
		}
		cursor = next
	}
}
