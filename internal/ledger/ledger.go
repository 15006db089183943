// Package ledger is the repository for committed transactions and the small
// settings documents around them. Every collection is one JSON document
// under a fixed key, replaced whole on each write.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
	"github.com/dvloznov/expense-analyzer/internal/store"
)

// Storage keys.
const (
	KeyTransactions = "expense_analyzer_transactions"
	KeyTrips        = "expense_analyzer_trips"
	KeyTags         = "expense_analyzer_tags"
	KeyProfile      = "expense_analyzer_profile"
	KeyOfficialTags = "expense_analyzer_official_tags"
	KeySheetsConfig = "expense_analyzer_google_sheets_config"
)

// ErrTransactionNotFound is returned when no committed transaction has the ID.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrNotOfficial is returned when a receipt is attached to a transaction
// that carries none of the official tags.
var ErrNotOfficial = errors.New("transaction has no official tag")

// legacyTags are renamed when transactions are loaded.
var legacyTags = map[string]string{
	"MUVATUPURA": "Muvattupuzha",
}

// Repository reads and writes the ledger documents. The mutex serialises
// read-modify-write cycles between concurrent HTTP requests.
type Repository struct {
	kv store.KV
	mu sync.Mutex
}

// New creates a repository over kv.
func New(kv store.KV) *Repository {
	return &Repository{kv: kv}
}

// getJSON decodes the document at key into v and reports whether it existed.
func (r *Repository) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getJSON: %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("getJSON: decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) putJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("putJSON: encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("putJSON: %s: %w", key, err)
	}
	return nil
}

// load must be called with r.mu held.
func (r *Repository) load(ctx context.Context) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	if _, err := r.getJSON(ctx, KeyTransactions, &txns); err != nil {
		return nil, err
	}

	migrated := 0
	for i := range txns {
		if txns[i].Tags == nil {
			txns[i].Tags = []string{}
		}
		for j, tag := range txns[i].Tags {
			if renamed, ok := legacyTags[tag]; ok {
				txns[i].Tags[j] = renamed
				migrated++
			}
		}
	}
	if migrated > 0 {
		log := logger.FromContext(ctx)
		log.Info().Int("tags", migrated).Msg("Migrated legacy tag names")
		if err := r.save(ctx, txns); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

// save must be called with r.mu held.
func (r *Repository) save(ctx context.Context, txns []domain.Transaction) error {
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return r.putJSON(ctx, KeyTransactions, txns)
}

// Transactions returns every committed transaction, newest first.
func (r *Repository) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txns, err := r.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Repository.Transactions: %w", err)
	}
	return txns, nil
}

// Get returns one transaction.
func (r *Repository) Get(ctx context.Context, id string) (domain.Transaction, error) {
	txns, err := r.Transactions(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	for _, tx := range txns {
		if tx.ID == id {
			return tx, nil
		}
	}
	return domain.Transaction{}, fmt.Errorf("Repository.Get: %s: %w", id, ErrTransactionNotFound)
}

// Select returns the transactions whose IDs are in ids, in ledger order.
func (r *Repository) Select(ctx context.Context, ids []string) ([]domain.Transaction, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	txns, err := r.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Transaction{}
	for _, tx := range txns {
		if want[tx.ID] {
			out = append(out, tx)
		}
	}
	return out, nil
}

// CommitBatch appends reviewed drafts and re-sorts the ledger by date,
// newest first. Nothing is written unless every draft is valid.
func (r *Repository) CommitBatch(ctx context.Context, drafts []domain.Transaction) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txns, err := r.load(ctx)
	if err != nil {
		return 0, fmt.Errorf("Repository.CommitBatch: %w", err)
	}

	existing := make(map[string]bool, len(txns))
	for _, tx := range txns {
		existing[tx.ID] = true
	}
	for _, d := range drafts {
		if err := d.Validate(); err != nil {
			return 0, fmt.Errorf("Repository.CommitBatch: %w", err)
		}
		if existing[d.ID] {
			return 0, fmt.Errorf("Repository.CommitBatch: %w duplicate transaction id %s", domain.ErrInvalid, d.ID)
		}
		existing[d.ID] = true
		txns = append(txns, d.Clone())
	}

	SortByDateDesc(txns)
	if err := r.save(ctx, txns); err != nil {
		return 0, fmt.Errorf("Repository.CommitBatch: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Int("committed", len(drafts)).Int("total", len(txns)).Msg("Committed review batch")
	return len(drafts), nil
}

// SortByDateDesc orders transactions newest first, keeping the relative
// order of same-day entries.
func SortByDateDesc(txns []domain.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date > txns[j].Date })
}

// mutate applies fn to the transaction with id, keeps the ledger sorted and
// saves it.
func (r *Repository) mutate(ctx context.Context, id string, fn func(*domain.Transaction) error) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txns, err := r.load(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	for i := range txns {
		if txns[i].ID != id {
			continue
		}
		if err := fn(&txns[i]); err != nil {
			return domain.Transaction{}, err
		}
		updated := txns[i].Clone()
		SortByDateDesc(txns)
		if err := r.save(ctx, txns); err != nil {
			return domain.Transaction{}, err
		}
		return updated, nil
	}
	return domain.Transaction{}, fmt.Errorf("%s: %w", id, ErrTransactionNotFound)
}

// Update overwrites the fields set in patch. A date change re-sorts the ledger.
func (r *Repository) Update(ctx context.Context, id string, patch domain.Patch) (domain.Transaction, error) {
	updated, err := r.mutate(ctx, id, func(tx *domain.Transaction) error {
		next, err := patch.Apply(*tx)
		if err != nil {
			return err
		}
		*tx = next
		return nil
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("Repository.Update: %w", err)
	}
	return updated, nil
}

// AddTag adds a trimmed, non-empty tag if it is not already present.
func (r *Repository) AddTag(ctx context.Context, id, tag string) (domain.Transaction, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return domain.Transaction{}, fmt.Errorf("Repository.AddTag: %w tag: empty", domain.ErrInvalid)
	}
	tx, err := r.mutate(ctx, id, func(tx *domain.Transaction) error {
		tx.AddTag(tag)
		return nil
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("Repository.AddTag: %w", err)
	}
	return tx, nil
}

// RemoveTag drops tag from the transaction.
func (r *Repository) RemoveTag(ctx context.Context, id, tag string) (domain.Transaction, error) {
	tx, err := r.mutate(ctx, id, func(tx *domain.Transaction) error {
		tx.RemoveTag(tag)
		return nil
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("Repository.RemoveTag: %w", err)
	}
	return tx, nil
}

// AddAttachment links an attachment ID to a transaction.
func (r *Repository) AddAttachment(ctx context.Context, id, attachmentID string) (domain.Transaction, error) {
	tx, err := r.mutate(ctx, id, func(tx *domain.Transaction) error {
		for _, a := range tx.Attachments {
			if a == attachmentID {
				return nil
			}
		}
		tx.Attachments = append(tx.Attachments, attachmentID)
		return nil
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("Repository.AddAttachment: %w", err)
	}
	return tx, nil
}

// RemoveAttachment unlinks an attachment ID from whichever transaction holds it.
func (r *Repository) RemoveAttachment(ctx context.Context, attachmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txns, err := r.load(ctx)
	if err != nil {
		return fmt.Errorf("Repository.RemoveAttachment: %w", err)
	}
	changed := false
	for i := range txns {
		kept := txns[i].Attachments[:0:0]
		for _, a := range txns[i].Attachments {
			if a != attachmentID {
				kept = append(kept, a)
			}
		}
		if len(kept) != len(txns[i].Attachments) {
			txns[i].Attachments = kept
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := r.save(ctx, txns); err != nil {
		return fmt.Errorf("Repository.RemoveAttachment: %w", err)
	}
	return nil
}

// Delete removes one transaction.
func (r *Repository) Delete(ctx context.Context, id string) error {
	n, err := r.DeleteMany(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("Repository.Delete: %s: %w", id, ErrTransactionNotFound)
	}
	return nil
}

// DeleteMany removes every transaction whose ID is in ids and returns how
// many were removed. Unknown IDs are ignored.
func (r *Repository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	txns, err := r.load(ctx)
	if err != nil {
		return 0, fmt.Errorf("Repository.DeleteMany: %w", err)
	}
	kept := txns[:0]
	for _, tx := range txns {
		if !drop[tx.ID] {
			kept = append(kept, tx)
		}
	}
	removed := len(txns) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := r.save(ctx, kept); err != nil {
		return 0, fmt.Errorf("Repository.DeleteMany: %w", err)
	}
	return removed, nil
}
