// Package dashboard computes the spending overview: totals by direction,
// per-category, per-day, per-tag and per-trip breakdowns for a date range.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/recurring"
)

// Range selects which transactions the dashboard looks at.
type Range string

const (
	RangeAll           Range = "all"
	RangeThisMonth     Range = "this-month"
	RangeLastMonth     Range = "last-month"
	RangeThisYear      Range = "this-year"
	RangeLastYear      Range = "last-year"
	RangeSpecificMonth Range = "specific-month"
)

// ParseRange validates a range name. Empty means all.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.TrimSpace(s)); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeThisMonth, RangeLastMonth, RangeThisYear, RangeLastYear, RangeSpecificMonth:
		return r, nil
	default:
		return "", fmt.Errorf("ParseRange: unknown range %q", s)
	}
}

// FilterRange keeps the transactions that fall inside rng relative to now.
// month (YYYY-MM) is only used by RangeSpecificMonth; when empty every
// transaction is kept. Transactions with unparseable dates only survive
// RangeAll.
func FilterRange(txns []domain.Transaction, rng Range, month string, now time.Time) []domain.Transaction {
	year, mon, _ := now.Date()
	lastYear, lastMon := year, mon-1
	if mon == time.January {
		lastYear, lastMon = year-1, time.December
	}

	out := []domain.Transaction{}
	for _, t := range txns {
		keep := true
		switch rng {
		case RangeSpecificMonth:
			keep = month == "" || strings.HasPrefix(t.Date, month)
		case RangeThisMonth, RangeLastMonth, RangeThisYear, RangeLastYear:
			d, err := t.Time()
			if err != nil {
				keep = false
				break
			}
			ty, tm, _ := d.Date()
			switch rng {
			case RangeThisMonth:
				keep = ty == year && tm == mon
			case RangeLastMonth:
				keep = ty == lastYear && tm == lastMon
			case RangeThisYear:
				keep = ty == year
			case RangeLastYear:
				keep = ty == year-1
			}
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}

// Entry is one named amount in a breakdown.
type Entry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DailyEntry is the expense total of one day.
type DailyEntry struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Summary is everything the dashboard shows.
type Summary struct {
	TotalExpenses   float64      `json:"totalExpenses"`
	TotalIncome     float64      `json:"totalIncome"`
	TotalInvestment float64      `json:"totalInvestment"`
	TopCategory     Entry        `json:"topCategory"`
	Categories      []Entry      `json:"categories"`
	Daily           []DailyEntry `json:"daily"`
	Tags            []Entry      `json:"tags"`
	Trips           []Entry      `json:"trips"`

	Recurring        []domain.RecurringPayment `json:"recurring"`
	RecurringMonthly float64                   `json:"recurringMonthly"`
}

func isInvestment(c domain.Category) bool {
	return c == domain.Investment || c == domain.Insurance
}

// Compute builds the summary for txns. Expenses are debits outside
// Investment and Insurance; those two categories count as investments in
// either direction. Breakdowns only look at expenses.
func Compute(txns []domain.Transaction, trips []domain.Trip, now time.Time) Summary {
	tripNames := make(map[string]bool, len(trips))
	for _, trip := range trips {
		tripNames[trip.Name] = true
	}

	var s Summary
	categoryTotals := map[string]float64{}
	dailyTotals := map[string]float64{}
	tagTotals := map[string]float64{}
	tripTotals := map[string]float64{}

	for _, t := range txns {
		if isInvestment(t.Category) {
			s.TotalInvestment += t.Amount
		}
		if t.Type == domain.Credit {
			s.TotalIncome += t.Amount
			continue
		}
		if isInvestment(t.Category) {
			continue
		}

		s.TotalExpenses += t.Amount
		categoryTotals[string(t.Category)] += t.Amount
		dailyTotals[t.Date] += t.Amount
		for _, tag := range t.Tags {
			tagTotals[tag] += t.Amount
			if tripNames[tag] {
				tripTotals[tag] += t.Amount
			}
		}
	}

	s.Categories = sortedEntries(categoryTotals)
	s.TopCategory = Entry{Name: "None"}
	if len(s.Categories) > 0 {
		s.TopCategory = s.Categories[0]
	}
	s.Tags = sortedEntries(tagTotals)
	s.Trips = sortedEntries(tripTotals)

	s.Daily = make([]DailyEntry, 0, len(dailyTotals))
	for date, amount := range dailyTotals {
		s.Daily = append(s.Daily, DailyEntry{Date: date, Amount: amount})
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })

	s.Recurring = recurring.Detect(txns, now)
	s.RecurringMonthly = recurring.MonthlyTotal(s.Recurring)
	return s
}

// sortedEntries orders by value descending, then name.
func sortedEntries(m map[string]float64) []Entry {
	out := make([]Entry, 0, len(m))
	for name, v := range m {
		out = append(out, Entry{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}
