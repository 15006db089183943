package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// ErrItemNotFound is returned when a batch has no draft with the given ID.
var ErrItemNotFound = errors.New("draft not found in batch")

// ReviewBatch holds parsed drafts while the user checks them. It is a copy
// of the parser output; edits never touch committed data.
type ReviewBatch struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	mu    sync.RWMutex
	items []domain.Transaction
}

// NewReviewBatch copies drafts into a new batch.
func NewReviewBatch(drafts []domain.Transaction) *ReviewBatch {
	items := make([]domain.Transaction, len(drafts))
	for i, d := range drafts {
		items[i] = d.Clone()
	}
	return &ReviewBatch{ID: uuid.NewString(), CreatedAt: time.Now().UTC(), items: items}
}

// Items returns a copy of the drafts in input order.
func (b *ReviewBatch) Items() []domain.Transaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Transaction, len(b.items))
	for i, it := range b.items {
		out[i] = it.Clone()
	}
	return out
}

// Len returns the number of drafts.
func (b *ReviewBatch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Edit overwrites fields of one draft.
func (b *ReviewBatch) Edit(id string, patch domain.Patch) (domain.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID != id {
			continue
		}
		updated, err := patch.Apply(b.items[i])
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("ReviewBatch.Edit: %w", err)
		}
		b.items[i] = updated
		return updated.Clone(), nil
	}
	return domain.Transaction{}, fmt.Errorf("ReviewBatch.Edit: %s: %w", id, ErrItemNotFound)
}

// Item returns a copy of one draft.
func (b *ReviewBatch) Item(id string) (domain.Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, it := range b.items {
		if it.ID == id {
			return it.Clone(), nil
		}
	}
	return domain.Transaction{}, fmt.Errorf("ReviewBatch.Item: %s: %w", id, ErrItemNotFound)
}

// Attach links an attachment ID to a draft through Edit, so the draft is
// revalidated like any other review change.
func (b *ReviewBatch) Attach(id, attachmentID string) (domain.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID != id {
			continue
		}
		ids := append([]string{}, b.items[i].Attachments...)
		for _, a := range ids {
			if a == attachmentID {
				return b.items[i].Clone(), nil
			}
		}
		updated, err := domain.Patch{Attachments: append(ids, attachmentID)}.Apply(b.items[i])
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("ReviewBatch.Attach: %w", err)
		}
		b.items[i] = updated
		return updated.Clone(), nil
	}
	return domain.Transaction{}, fmt.Errorf("ReviewBatch.Attach: %s: %w", id, ErrItemNotFound)
}

// Remove drops a draft from the batch and reports whether it was present.
func (b *ReviewBatch) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// Batches keeps review batches between HTTP calls.
type Batches struct {
	mu      sync.RWMutex
	batches map[string]*ReviewBatch
}

// NewBatches creates an empty registry.
func NewBatches() *Batches {
	return &Batches{batches: make(map[string]*ReviewBatch)}
}

// Put stores b under its ID.
func (r *Batches) Put(b *ReviewBatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = b
}

// Get returns the batch with id.
func (r *Batches) Get(id string) (*ReviewBatch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches[id]
	return b, ok
}

// Delete forgets a batch, typically after commit.
func (r *Batches) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, id)
}
