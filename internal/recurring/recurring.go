// Package recurring finds subscription-like payments in a transaction
// history: debits with the same normalized description, a stable amount and
// a monthly or yearly rhythm.
package recurring

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

const (
	// AmountTolerance is the maximum relative deviation from the group mean.
	AmountTolerance = 0.1
	// Confidence is reported for every detected payment.
	Confidence = 0.9

	monthlyMinDays = 25
	monthlyMaxDays = 35
	yearlyMinDays  = 360
	yearlyMaxDays  = 370
)

var (
	slashDates = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	digitRuns  = regexp.MustCompile(`\d+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// NormalizeKey strips embedded dates and numbers so "Netflix Jan 2025" and
// "Netflix Feb 2025" land in the same group.
func NormalizeKey(description string) string {
	key := strings.ToLower(description)
	key = slashDates.ReplaceAllString(key, "")
	key = digitRuns.ReplaceAllString(key, "")
	return strings.TrimSpace(key)
}

type member struct {
	tx   domain.Transaction
	date time.Time
}

// Detect returns the recurring payments found in txns, ordered by next due
// date and then ID. Credits and transactions with unparseable dates are
// ignored. now only decides the Active/Overdue status.
func Detect(txns []domain.Transaction, now time.Time) []domain.RecurringPayment {
	groups := make(map[string][]member)
	for _, tx := range txns {
		if tx.Type != domain.Debit {
			continue
		}
		d, err := tx.Time()
		if err != nil {
			continue
		}
		key := NormalizeKey(tx.Description)
		groups[key] = append(groups[key], member{tx: tx, date: d})
	}

	today := truncateDay(now)
	out := []domain.RecurringPayment{}
	for key, group := range groups {
		if p, ok := evaluate(key, group, today); ok {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].NextDueDate != out[j].NextDueDate {
			return out[i].NextDueDate < out[j].NextDueDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func evaluate(key string, group []member, today time.Time) (domain.RecurringPayment, bool) {
	if len(group) < 2 {
		return domain.RecurringPayment{}, false
	}

	sort.SliceStable(group, func(i, j int) bool { return group[i].date.Before(group[j].date) })

	var sum float64
	for _, m := range group {
		sum += m.tx.Amount
	}
	mean := sum / float64(len(group))
	for _, m := range group {
		if math.Abs(m.tx.Amount-mean) >= mean*AmountTolerance {
			return domain.RecurringPayment{}, false
		}
	}

	var totalDays float64
	for i := 1; i < len(group); i++ {
		gap := group[i].date.Sub(group[i-1].date).Hours() / 24
		totalDays += math.Ceil(gap)
	}
	meanGap := totalDays / float64(len(group)-1)

	last := group[len(group)-1]
	var freq domain.Frequency
	var next time.Time
	switch {
	case meanGap >= monthlyMinDays && meanGap <= monthlyMaxDays:
		freq = domain.Monthly
		next = last.date.AddDate(0, 1, 0)
	case meanGap >= yearlyMinDays && meanGap <= yearlyMaxDays:
		freq = domain.Yearly
		next = last.date.AddDate(1, 0, 0)
	default:
		return domain.RecurringPayment{}, false
	}

	status := domain.StatusActive
	if next.Before(today) {
		status = domain.StatusOverdue
	}

	return domain.RecurringPayment{
		ID:          whitespace.ReplaceAllString(key, "-") + "-" + strconv.FormatInt(int64(math.Round(mean)), 10),
		Name:        group[0].tx.Description,
		Amount:      mean,
		Frequency:   freq,
		LastDate:    last.tx.Date,
		NextDueDate: next.Format(domain.DateLayout),
		Confidence:  Confidence,
		Status:      status,
	}, true
}

// MonthlyTotal sums the amounts of the monthly payments.
func MonthlyTotal(payments []domain.RecurringPayment) float64 {
	var total float64
	for _, p := range payments {
		if p.Frequency == domain.Monthly {
			total += p.Amount
		}
	}
	return total
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
