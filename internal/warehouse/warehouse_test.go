package warehouse

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

type mockInserter struct {
	PutFunc func(ctx context.Context, src interface{}) error
}

func (m *mockInserter) Put(ctx context.Context, src interface{}) error {
	return m.PutFunc(ctx, src)
}

var exportedAt = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func TestToRow(t *testing.T) {
	tx := domain.Transaction{
		ID: "a", Date: "2025-08-09", Amount: 4426.03, Description: "Dmart",
		Category: domain.GroceryShopping, Confidence: 0.9, Type: domain.Debit, Attachments: []string{"x"},
	}
	row, err := ToRow(tx, exportedAt)
	if err != nil {
		t.Fatalf("ToRow failed: %v", err)
	}
	if row.TransactionDate.String() != "2025-08-09" {
		t.Errorf("date = %s", row.TransactionDate)
	}
	if row.Amount.FloatString(2) != "4426.03" {
		t.Errorf("amount = %s", row.Amount.FloatString(2))
	}
	if row.PaidBy.Valid {
		t.Error("empty By should be NULL")
	}
	if row.Tags == nil || row.AttachmentCount != 1 || row.Direction != "dr" {
		t.Errorf("unexpected row %+v", row)
	}

	tx.Date = "09/08/2025"
	if _, err := ToRow(tx, exportedAt); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestExport_Batches(t *testing.T) {
	txns := make([]domain.Transaction, 0, 1202)
	for i := 0; i < 1201; i++ {
		txns = append(txns, domain.Transaction{ID: fmt.Sprint(i), Date: "2025-08-01", Amount: 1, Type: domain.Debit})
	}
	txns = append(txns, domain.Transaction{ID: "bad", Date: "nope"})

	var sizes []int
	m := &mockInserter{PutFunc: func(ctx context.Context, src interface{}) error {
		sizes = append(sizes, len(src.([]*TransactionRow)))
		return nil
	}}

	res, err := Export(context.Background(), m, txns, exportedAt)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if fmt.Sprint(sizes) != "[500 500 201]" {
		t.Errorf("batch sizes = %v", sizes)
	}
	if res.Inserted != 1201 || res.Skipped != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestExport_PutError(t *testing.T) {
	m := &mockInserter{PutFunc: func(ctx context.Context, src interface{}) error {
		return errors.New("quota exceeded")
	}}
	txns := []domain.Transaction{{ID: "a", Date: "2025-08-01"}}
	res, err := Export(context.Background(), m, txns, exportedAt)
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Inserted != 0 {
		t.Errorf("Inserted = %d", res.Inserted)
	}
}

func TestNewExporter_RequiresTable(t *testing.T) {
	for _, tc := range []struct{ project, dataset, table string }{
		{"", "ds", "tbl"},
		{"proj", "", "tbl"},
		{"proj", "ds", ""},
	} {
		if _, err := NewExporter(context.Background(), tc.project, tc.dataset, tc.table); err == nil {
			t.Errorf("NewExporter(%q, %q, %q) should fail", tc.project, tc.dataset, tc.table)
		}
	}
}
