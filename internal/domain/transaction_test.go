package domain

import (
	"testing"
	"time"
)

func validTxn() Transaction {
	return Transaction{
		ID:          "abc",
		Date:        "2025-08-09",
		Amount:      10,
		Description: "Dmart purchase",
		Category:    GroceryShopping,
		Confidence:  0.9,
		By:          "Binish",
		Tags:        []string{"Trip"},
		Type:        Debit,
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Transaction) {}},
		{name: "missing id", mutate: func(tx *Transaction) { tx.ID = "" }, wantErr: true},
		{name: "negative amount", mutate: func(tx *Transaction) { tx.Amount = -1 }, wantErr: true},
		{name: "bad direction", mutate: func(tx *Transaction) { tx.Type = "xx" }, wantErr: true},
		{name: "bad category", mutate: func(tx *Transaction) { tx.Category = "Food" }, wantErr: true},
		{name: "bad date", mutate: func(tx *Transaction) { tx.Date = "2025-13-40" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTxn()
			tt.mutate(&tx)
			err := tx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_Tags(t *testing.T) {
	tx := validTxn()

	if tx.AddTag("Trip") {
		t.Error("AddTag should not add a duplicate")
	}
	if tx.AddTag("") {
		t.Error("AddTag should ignore empty tags")
	}
	if !tx.AddTag("Gift") {
		t.Error("AddTag should add a new tag")
	}
	if got := len(tx.Tags); got != 2 {
		t.Fatalf("expected 2 tags, got %d", got)
	}
	if !tx.RemoveTag("Trip") {
		t.Error("RemoveTag should report a change")
	}
	if tx.RemoveTag("Trip") {
		t.Error("RemoveTag should report no change for a missing tag")
	}
	if len(tx.Tags) != 1 || tx.Tags[0] != "Gift" {
		t.Errorf("unexpected tags after removal: %v", tx.Tags)
	}
}

func TestPatch_Apply(t *testing.T) {
	orig := validTxn()
	desc := "Vegetables"
	cat := Uncategorized

	got, err := Patch{Description: &desc, Category: &cat}.Apply(orig)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got.Description != "Vegetables" || got.Category != Uncategorized {
		t.Errorf("patch not applied: %+v", got)
	}
	if orig.Description != "Dmart purchase" {
		t.Error("Apply must not mutate the original")
	}

	neg := -5.0
	if _, err := (Patch{Amount: &neg}).Apply(orig); err == nil {
		t.Error("expected validation error for negative amount")
	}
}

func TestTrip_Contains(t *testing.T) {
	trip := Trip{ID: "t1", Name: "Chennai Trip", Start: "2025-08-01", End: "2025-08-05"}

	tests := []struct {
		date string
		want bool
	}{
		{"2025-07-31", false},
		{"2025-08-01", true},
		{"2025-08-03", true},
		{"2025-08-05", true},
		{"2025-08-06", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, _ := time.Parse(DateLayout, tt.date)
			if got := trip.Contains(d); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestTrip_Validate(t *testing.T) {
	if err := (Trip{Name: "x", Start: "2025-01-02", End: "2025-01-01"}).Validate(); err == nil {
		t.Error("expected error when end is before start")
	}
	if err := (Trip{Name: "x", Start: "2025-01-01", End: "2025-01-01"}).Validate(); err != nil {
		t.Errorf("single-day trip should be valid: %v", err)
	}
	if err := (Trip{Start: "2025-01-01", End: "2025-01-02"}).Validate(); err == nil {
		t.Error("expected error for unnamed trip")
	}
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("category %q should be valid", c)
		}
	}
	if Category("Transport").Valid() {
		t.Error("Transport is not part of the category set")
	}
}
