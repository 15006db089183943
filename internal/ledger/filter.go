package ledger

import (
	"context"
	"strings"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// All matches any value in a Filter field.
const All = "All"

// Filter narrows the ledger view. Empty or "All" fields match everything.
// Month is a YYYY-MM prefix of the transaction date.
type Filter struct {
	Category string
	Tag      string
	Month    string
}

func (f Filter) any(v string) bool { return v == "" || v == All }

// Match reports whether tx passes every field of the filter.
func (f Filter) Match(tx domain.Transaction) bool {
	if !f.any(f.Category) && string(tx.Category) != f.Category {
		return false
	}
	if !f.any(f.Tag) && !tx.HasTag(f.Tag) {
		return false
	}
	if !f.any(f.Month) && !strings.HasPrefix(tx.Date, f.Month) {
		return false
	}
	return true
}

// Apply returns the transactions matching f, preserving order.
func (f Filter) Apply(txns []domain.Transaction) []domain.Transaction {
	out := []domain.Transaction{}
	for _, tx := range txns {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Filter loads the ledger and applies f.
func (r *Repository) Filter(ctx context.Context, f Filter) ([]domain.Transaction, error) {
	txns, err := r.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(txns), nil
}
