package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/dvloznov/expense-analyzer/internal/dashboard"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/parser"
)

func init() {
	color.NoColor = true
}

func TestReadInput(t *testing.T) {
	ctx := context.Background()

	got, err := readInput(ctx, "-", strings.NewReader("Milk 60 Anu dr"))
	if err != nil || got != "Milk 60 Anu dr" {
		t.Errorf("stdin: got %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "statement.txt")
	if err := os.WriteFile(path, []byte("Petrol 1500 Binish dr"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = readInput(ctx, path, nil)
	if err != nil || got != "Petrol 1500 Binish dr" {
		t.Errorf("file: got %q, %v", got, err)
	}

	if _, err := readInput(ctx, filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := readInput(ctx, "gs://bucket-only", nil); err == nil {
		t.Error("expected error for a gs:// URI without an object")
	}
}

func TestCommittable(t *testing.T) {
	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	items := parser.ParseLines("09/08/2025 Dmart 100 Binish dr\n31/02/2025 garbage 1 x dr", now)

	keep, dropped := committable(items)
	if len(keep) != 1 || dropped != 1 {
		t.Fatalf("expected 1 kept and 1 dropped, got %d/%d", len(keep), dropped)
	}
	if keep[0].Description != "Dmart" {
		t.Errorf("kept the wrong row: %+v", keep[0])
	}
}

func TestPrintTransactions(t *testing.T) {
	var buf bytes.Buffer
	printTransactions(&buf, []domain.Transaction{
		{Date: "2025-08-09", Description: "Dmart purchase", Amount: 4426.03, Category: domain.GroceryShopping, Type: domain.Debit, By: "Binish", Tags: []string{"Trip", "Goa"}},
		{Date: "2025-08-01", Description: "Salary", Amount: 50000, Category: domain.Income, Type: domain.Credit, By: "Binish"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for _, want := range []string{"2025-08-09", "Dmart purchase", "-    4426.03", "Grocery Shopping", "[Trip, Goa]"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
	if !strings.Contains(lines[1], "+   50000.00") {
		t.Errorf("credit line %q should carry a plus sign", lines[1])
	}
}

func TestPrintRecurring(t *testing.T) {
	var buf bytes.Buffer
	printRecurring(&buf, nil, 0)
	if !strings.Contains(buf.String(), "No recurring payments") {
		t.Errorf("unexpected empty output %q", buf.String())
	}

	buf.Reset()
	printRecurring(&buf, []domain.RecurringPayment{
		{Name: "netflix", Amount: 649, Frequency: domain.Monthly, LastDate: "2025-08-05", NextDueDate: "2025-09-04", Status: domain.StatusActive},
	}, 649)
	out := buf.String()
	for _, want := range []string{"netflix", "649.00", "Monthly", "2025-09-04", "Active", "Estimated monthly total: 649.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, dashboard.Summary{
		TotalExpenses: 500,
		TotalIncome:   1000,
		TopCategory:   dashboard.Entry{Name: "Rent", Value: 400},
		Categories:    []dashboard.Entry{{Name: "Rent", Value: 400}, {Name: "Commute", Value: 100}},
	})
	out := buf.String()
	for _, want := range []string{"Expenses", "500.00", "Top category Rent (400.00)", "Categories", "Commute"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Trips") {
		t.Error("empty sections should be omitted")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a very long description", 6); got != "a ver…" {
		t.Errorf("got %q", got)
	}
}
