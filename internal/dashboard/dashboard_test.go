package dashboard

import (
	"testing"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

func tx(date string, amount float64, cat domain.Category, dir domain.Direction, tags ...string) domain.Transaction {
	if tags == nil {
		tags = []string{}
	}
	return domain.Transaction{ID: date + string(cat), Date: date, Amount: amount, Category: cat, Type: dir, Tags: tags}
}

func TestFilterRange(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	txns := []domain.Transaction{
		tx("2025-01-03", 1, domain.Shopping, domain.Debit),
		tx("2024-12-28", 2, domain.Shopping, domain.Debit),
		tx("2024-06-01", 3, domain.Shopping, domain.Debit),
		tx("2023-12-31", 4, domain.Shopping, domain.Debit),
		tx("bad", 5, domain.Shopping, domain.Debit),
	}

	tests := []struct {
		rng   Range
		month string
		want  int
	}{
		{RangeAll, "", 5},
		{RangeThisMonth, "", 1},
		{RangeLastMonth, "", 1}, // January rolls back to last December
		{RangeThisYear, "", 1},
		{RangeLastYear, "", 2},
		{RangeSpecificMonth, "2024-06", 1},
		{RangeSpecificMonth, "", 5},
	}
	for _, tt := range tests {
		got := FilterRange(txns, tt.rng, tt.month, now)
		if len(got) != tt.want {
			t.Errorf("FilterRange(%s, %q) = %d items, want %d", tt.rng, tt.month, len(got), tt.want)
		}
	}
}

func TestParseRange(t *testing.T) {
	if r, err := ParseRange(""); err != nil || r != RangeAll {
		t.Errorf("ParseRange(\"\") = %v, %v", r, err)
	}
	if r, err := ParseRange("last-year"); err != nil || r != RangeLastYear {
		t.Errorf("ParseRange(last-year) = %v, %v", r, err)
	}
	if _, err := ParseRange("fortnight"); err == nil {
		t.Error("expected error for unknown range")
	}
}

func TestCompute(t *testing.T) {
	trips := []domain.Trip{{ID: "t1", Name: "Chennai Trip", Start: "2025-08-01", End: "2025-08-05"}}
	txns := []domain.Transaction{
		tx("2025-08-02", 100, domain.OutsideFood, domain.Debit, "Trip", "Chennai Trip"),
		tx("2025-08-02", 50, domain.Commute, domain.Debit, "Trip", "Chennai Trip"),
		tx("2025-08-01", 300, domain.GroceryShopping, domain.Debit),
		tx("2025-08-01", 1000, domain.Investment, domain.Debit),
		tx("2025-08-03", 200, domain.Insurance, domain.Credit),
		tx("2025-08-01", 5000, domain.Income, domain.Credit),
	}

	s := Compute(txns, trips, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))

	if s.TotalExpenses != 450 {
		t.Errorf("TotalExpenses = %v, want 450", s.TotalExpenses)
	}
	if s.TotalIncome != 5200 {
		t.Errorf("TotalIncome = %v, want 5200", s.TotalIncome)
	}
	if s.TotalInvestment != 1200 {
		t.Errorf("TotalInvestment = %v, want 1200", s.TotalInvestment)
	}
	if s.TopCategory.Name != string(domain.GroceryShopping) || s.TopCategory.Value != 300 {
		t.Errorf("TopCategory = %+v", s.TopCategory)
	}
	if len(s.Categories) != 3 {
		t.Errorf("Categories = %+v", s.Categories)
	}
	if len(s.Daily) != 2 || s.Daily[0].Date != "2025-08-01" || s.Daily[1].Amount != 150 {
		t.Errorf("Daily = %+v", s.Daily)
	}
	if len(s.Tags) != 2 || s.Tags[0].Value != 150 || s.Tags[0].Name != "Chennai Trip" {
		t.Errorf("Tags = %+v", s.Tags)
	}
	if len(s.Trips) != 1 || s.Trips[0].Name != "Chennai Trip" || s.Trips[0].Value != 150 {
		t.Errorf("Trips = %+v", s.Trips)
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, nil, time.Now())
	if s.TopCategory.Name != "None" || s.TotalExpenses != 0 || len(s.Daily) != 0 {
		t.Errorf("unexpected empty summary %+v", s)
	}
}
