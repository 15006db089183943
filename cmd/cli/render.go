package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dvloznov/expense-analyzer/internal/dashboard"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/parser"
)

const descLength = 36

var (
	dateColor     = color.New(color.FgYellow)
	debitColor    = color.New(color.FgRed)
	creditColor   = color.New(color.FgGreen)
	categoryColor = color.New(color.FgCyan)
	tagColor      = color.New(color.FgMagenta)
	warnColor     = color.New(color.BgRed, color.FgWhite)
	headColor     = color.New(color.Bold)
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// printTransactions writes one line per transaction.
func printTransactions(w io.Writer, txns []domain.Transaction) {
	for _, t := range txns {
		amount := debitColor
		sign := "-"
		if t.Type == domain.Credit {
			amount, sign = creditColor, "+"
		}

		dateColor.Fprintf(w, "%-10s ", t.Date)
		fmt.Fprintf(w, "%-*s ", descLength, truncate(t.Description, descLength))
		amount.Fprintf(w, "%s%11.2f ", sign, t.Amount)
		categoryColor.Fprintf(w, "%-18s ", t.Category)
		fmt.Fprintf(w, "%-10s", t.By)
		if len(t.Tags) > 0 {
			tagColor.Fprintf(w, " [%s]", strings.Join(t.Tags, ", "))
		}
		if parser.IsPlaceholder(t) {
			warnColor.Fprint(w, " UNPARSED ")
		}
		fmt.Fprintln(w)
	}
}

// printRecurring lists detected payments with overdue ones highlighted.
func printRecurring(w io.Writer, payments []domain.RecurringPayment, monthly float64) {
	if len(payments) == 0 {
		fmt.Fprintln(w, "No recurring payments detected.")
		return
	}
	for _, p := range payments {
		status := creditColor
		if p.Status == domain.StatusOverdue {
			status = warnColor
		}
		fmt.Fprintf(w, "%-*s %10.2f %-9s last %s next ", descLength, truncate(p.Name, descLength), p.Amount, p.Frequency, p.LastDate)
		dateColor.Fprint(w, p.NextDueDate)
		fmt.Fprint(w, " ")
		status.Fprintf(w, " %s ", p.Status)
		fmt.Fprintln(w)
	}
	headColor.Fprintf(w, "Estimated monthly total: %.2f\n", monthly)
}

// printSummary renders the dashboard totals and breakdowns.
func printSummary(w io.Writer, s dashboard.Summary) {
	headColor.Fprintln(w, "Totals")
	debitColor.Fprintf(w, "  Expenses     %12.2f\n", s.TotalExpenses)
	creditColor.Fprintf(w, "  Income       %12.2f\n", s.TotalIncome)
	fmt.Fprintf(w, "  Investments  %12.2f\n", s.TotalInvestment)
	fmt.Fprintf(w, "  Top category %s (%.2f)\n", s.TopCategory.Name, s.TopCategory.Value)

	sections := []struct {
		title   string
		entries []dashboard.Entry
	}{
		{"Categories", s.Categories},
		{"Tags", s.Tags},
		{"Trips", s.Trips},
	}
	for _, sec := range sections {
		if len(sec.entries) == 0 {
			continue
		}
		headColor.Fprintln(w, sec.title)
		for _, e := range sec.entries {
			fmt.Fprintf(w, "  %-24s %12.2f\n", e.Name, e.Value)
		}
	}

	if len(s.Recurring) > 0 {
		headColor.Fprintf(w, "Recurring  %d payments, %.2f per month\n", len(s.Recurring), s.RecurringMonthly)
	}
}
