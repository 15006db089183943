package parser

import (
	"testing"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

var fixedNow = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantDate string
		wantAmt  float64
		wantBy   string
		wantType domain.Direction
		wantDesc string
	}{
		{
			name:     "full line",
			line:     "09/08/2025 Dmart purchase 4,426.03 Binish dr",
			wantDate: "2025-08-09", wantAmt: 4426.03, wantBy: "Binish", wantType: domain.Debit, wantDesc: "Dmart purchase",
		},
		{
			name:     "credit",
			line:     "01/01/2025 Salary 50000 Binish cr",
			wantDate: "2025-01-01", wantAmt: 50000, wantBy: "Binish", wantType: domain.Credit, wantDesc: "Salary",
		},
		{
			name:     "uppercase direction and hyphen date",
			line:     "5-3-25 Milk 60 Anu DR",
			wantDate: "2025-03-05", wantAmt: 60, wantBy: "Anu", wantType: domain.Debit, wantDesc: "Milk",
		},
		{
			name:     "no date defaults to now",
			line:     "Petrol 1500 Binish dr",
			wantDate: "2025-09-01", wantAmt: 1500, wantBy: "Binish", wantType: domain.Debit, wantDesc: "Petrol",
		},
		{
			name:     "no direction defaults to debit",
			line:     "10/08/2025 Uber 230 Binish",
			wantDate: "2025-08-10", wantAmt: 230, wantBy: "Binish", wantType: domain.Debit, wantDesc: "Uber",
		},
		{
			name:     "word ending in dr is not a direction",
			line:     "10/08/2025 Tea 20 Alexandr",
			wantDate: "2025-08-10", wantAmt: 20, wantBy: "Alexandr", wantType: domain.Debit, wantDesc: "Tea",
		},
		{
			name:     "empty debit description",
			line:     "10/08/2025 230 Binish dr",
			wantDate: "2025-08-10", wantAmt: 230, wantBy: "Binish", wantType: domain.Debit, wantDesc: "Unknown Transaction",
		},
		{
			name:     "empty credit description",
			line:     "10/08/2025 230 Binish cr",
			wantDate: "2025-08-10", wantAmt: 230, wantBy: "Binish", wantType: domain.Credit, wantDesc: "Unknown Income",
		},
		{
			name:     "missing amount",
			line:     "10/08/2025 Chocolates Binish dr",
			wantDate: "2025-08-10", wantAmt: 0, wantBy: "Binish", wantType: domain.Debit, wantDesc: "Chocolates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.line, fixedNow)
			if got.Date != tt.wantDate {
				t.Errorf("Date = %q, want %q", got.Date, tt.wantDate)
			}
			if got.Amount != tt.wantAmt {
				t.Errorf("Amount = %v, want %v", got.Amount, tt.wantAmt)
			}
			if got.By != tt.wantBy {
				t.Errorf("By = %q, want %q", got.By, tt.wantBy)
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Type, tt.wantType)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
			if got.ID == "" {
				t.Error("expected an ID")
			}
			if got.Category != domain.Uncategorized {
				t.Errorf("drafts should start uncategorized, got %s", got.Category)
			}
		})
	}
}

func TestParseLine_InvalidDateYieldsPlaceholder(t *testing.T) {
	got := ParseLine("31/02/2025 Cake 500 Binish dr", fixedNow)
	if !IsPlaceholder(got) {
		t.Fatalf("expected placeholder, got %+v", got)
	}
	if got.Date != "2025-09-01" || got.Confidence != 0 || got.Type != domain.Debit {
		t.Errorf("placeholder fields wrong: %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("placeholder should still be a valid transaction: %v", err)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"09/08/2025", "2025-08-09", false},
		{"9/8/25", "2025-08-09", false},
		{"09-08-2025", "2025-08-09", false},
		{"", "2025-09-01", false},
		{"32/01/2025", "", true},
		{"01/01/202", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeDate(tt.raw, fixedNow)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDate(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseLines(t *testing.T) {
	input := "09/08/2025 Dmart purchase 4,426.03 Binish dr\r\n\n   \n31/02/2025 broken 1 X dr\n01/01/2025 Salary 50000 Binish cr\n"

	got := ParseLines(input, fixedNow)
	if len(got) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(got))
	}
	if got[0].Description != "Dmart purchase" {
		t.Errorf("first draft = %q", got[0].Description)
	}
	if !IsPlaceholder(got[1]) {
		t.Errorf("second draft should be a placeholder, got %+v", got[1])
	}
	if got[2].Type != domain.Credit {
		t.Errorf("third draft should be a credit")
	}

	ids := map[string]bool{}
	for _, tx := range got {
		if ids[tx.ID] {
			t.Errorf("duplicate id %s", tx.ID)
		}
		ids[tx.ID] = true
	}
}

func TestParseLine_StableIDs(t *testing.T) {
	orig := newID
	defer func() { newID = orig }()
	newID = func() string { return "fixed" }

	if got := ParseLine("Tea 10 A dr", fixedNow); got.ID != "fixed" {
		t.Errorf("ID = %q, want fixed", got.ID)
	}
}
