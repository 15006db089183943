package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid marks errors caused by bad user input rather than storage or
// network failures.
var ErrInvalid = errors.New("invalid")

// DateLayout is the ISO calendar date format used for every stored date.
const DateLayout = "2006-01-02"

// Direction tells whether money left (debit) or entered (credit) the household.
type Direction string

const (
	Debit  Direction = "dr"
	Credit Direction = "cr"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Debit || d == Credit
}

// Transaction is one household money movement. The JSON shape matches the
// documents persisted by earlier versions of the tracker, so existing data
// loads without conversion.
type Transaction struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`   // YYYY-MM-DD
	Amount      float64   `json:"amount"` // always >= 0, direction carries the sign
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Confidence  float64   `json:"confidence"` // 0 to 1
	By          string    `json:"by"`         // who paid / received
	Tags        []string  `json:"tags"`
	Type        Direction `json:"type"`

	Attachments []string `json:"attachments,omitempty"` // attachment IDs, in upload order
}

// Time returns the transaction date as midnight UTC.
func (t Transaction) Time() (time.Time, error) {
	return time.Parse(DateLayout, t.Date)
}

// HasTag reports whether tag is already present.
func (t Transaction) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag unless it is empty or already present. It reports
// whether the tag list changed.
func (t *Transaction) AddTag(tag string) bool {
	if tag == "" || t.HasTag(tag) {
		return false
	}
	t.Tags = append(t.Tags, tag)
	return true
}

// RemoveTag drops every occurrence of tag, preserving the order of the rest.
func (t *Transaction) RemoveTag(tag string) bool {
	kept := t.Tags[:0:0]
	for _, existing := range t.Tags {
		if existing != tag {
			kept = append(kept, existing)
		}
	}
	changed := len(kept) != len(t.Tags)
	t.Tags = kept
	return changed
}

// Validate checks the transaction invariants.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w transaction: id is required", ErrInvalid)
	}
	if t.Amount < 0 {
		return fmt.Errorf("%w transaction %s: negative amount %v", ErrInvalid, t.ID, t.Amount)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w transaction %s: direction %q", ErrInvalid, t.ID, t.Type)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w transaction %s: category %q", ErrInvalid, t.ID, t.Category)
	}
	if _, err := t.Time(); err != nil {
		return fmt.Errorf("%w transaction %s: date %q: %v", ErrInvalid, t.ID, t.Date, err)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate slices freely.
func (t Transaction) Clone() Transaction {
	c := t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.Attachments != nil {
		c.Attachments = append([]string(nil), t.Attachments...)
	}
	return c
}

// Patch is a partial field overwrite used by user edits. Nil fields are left
// untouched.
type Patch struct {
	Date        *string    `json:"date,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	Confidence  *float64   `json:"confidence,omitempty"`
	By          *string    `json:"by,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Type        *Direction `json:"type,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
}

// Apply returns a copy of t with the patch applied. The result is validated.
func (p Patch) Apply(t Transaction) (Transaction, error) {
	out := t.Clone()
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Confidence != nil {
		out.Confidence = *p.Confidence
	}
	if p.By != nil {
		out.By = *p.By
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Attachments != nil {
		out.Attachments = append([]string(nil), p.Attachments...)
	}
	if err := out.Validate(); err != nil {
		return t, err
	}
	return out, nil
}
