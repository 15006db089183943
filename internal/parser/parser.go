// Package parser turns pasted statement lines of the form
//
//	09/08/2025 Dmart purchase 4,426.03 Binish dr
//
// into draft transactions. Segmentation is positional: the date is taken from
// the start of the line, then the direction, payer and amount are peeled off
// the end, and whatever is left is the description.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

const (
	// PlaceholderDescription marks a line that could not be parsed.
	PlaceholderDescription = "Error Parsing Transaction"

	unknownDebit  = "Unknown Transaction"
	unknownCredit = "Unknown Income"

	// DefaultConfidence is the confidence of a draft before categorization.
	DefaultConfidence = 0.5
)

var (
	leadingDate   = regexp.MustCompile(`^(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
	trailingType  = regexp.MustCompile(`(?i)(?:^|\s)(dr|cr)$`)
	trailingWord  = regexp.MustCompile(`\s+(\S+)$`)
	trailingNum   = regexp.MustCompile(`([\d,]+(?:\.\d+)?)$`)
	datePieces    = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})$`)
	lineSeparator = regexp.MustCompile(`\r?\n`)
)

// newID is swapped in tests that need stable identifiers.
var newID = uuid.NewString

// Fields is the raw segmentation of one line.
type Fields struct {
	Date        string // normalized YYYY-MM-DD
	Amount      float64
	By          string
	Type        domain.Direction
	Description string
}

// Segment splits a line into its fields. Each field is optional: a missing
// date becomes now, a missing amount becomes 0 and a missing direction
// becomes debit. It fails only when the date token does not describe a real
// calendar date.
func Segment(line string, now time.Time) (Fields, error) {
	f := Fields{Type: domain.Debit}

	rawDate := ""
	if m := leadingDate.FindStringSubmatch(line); m != nil {
		rawDate = m[1]
	}
	remaining := strings.TrimSpace(strings.Replace(line, rawDate, "", 1))

	if m := trailingType.FindStringSubmatch(remaining); m != nil {
		f.Type = domain.Direction(strings.ToLower(m[1]))
		remaining = strings.TrimSpace(remaining[:len(remaining)-len(m[1])])
	}

	if m := trailingWord.FindStringSubmatch(remaining); m != nil {
		f.By = m[1]
		remaining = strings.TrimSpace(remaining[:len(remaining)-len(m[0])])
	}

	if m := trailingNum.FindStringSubmatch(remaining); m != nil {
		digits := strings.ReplaceAll(m[1], ",", "")
		if amount, err := strconv.ParseFloat(digits, 64); err == nil {
			f.Amount = amount
			remaining = strings.TrimSpace(remaining[:len(remaining)-len(m[1])])
		}
	}

	f.Description = strings.TrimSpace(remaining)

	date, err := NormalizeDate(rawDate, now)
	if err != nil {
		return Fields{}, err
	}
	f.Date = date

	return f, nil
}

// NormalizeDate converts D/M/YY, DD-MM-YYYY and friends to YYYY-MM-DD. Two
// digit years are taken as 20YY. An empty token yields the date of now.
func NormalizeDate(raw string, now time.Time) (string, error) {
	if raw == "" {
		return now.Format(domain.DateLayout), nil
	}

	m := datePieces.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("NormalizeDate: unrecognised date %q", raw)
	}
	day := leftPad(m[1])
	month := leftPad(m[2])
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}

	iso := year + "-" + month + "-" + day
	if _, err := time.Parse(domain.DateLayout, iso); err != nil {
		return "", fmt.Errorf("NormalizeDate: %q is not a calendar date: %w", raw, err)
	}
	return iso, nil
}

func leftPad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ParseLine produces exactly one draft for a line. It never fails: anything
// that goes wrong yields a placeholder so batch positions stay aligned with
// the input. The draft is uncategorized; see package rules.
func ParseLine(line string, now time.Time) (tx domain.Transaction) {
	defer func() {
		if r := recover(); r != nil {
			tx = Placeholder(now)
		}
	}()

	f, err := Segment(line, now)
	if err != nil {
		return Placeholder(now)
	}

	desc := f.Description
	if desc == "" {
		desc = unknownDebit
		if f.Type == domain.Credit {
			desc = unknownCredit
		}
	}

	return domain.Transaction{
		ID:          newID(),
		Date:        f.Date,
		Amount:      f.Amount,
		Description: desc,
		Category:    domain.Uncategorized,
		Confidence:  DefaultConfidence,
		By:          f.By,
		Tags:        []string{},
		Type:        f.Type,
	}
}

// ParseLines splits input on line breaks, skips blank lines and parses the
// rest in order.
func ParseLines(input string, now time.Time) []domain.Transaction {
	var out []domain.Transaction
	for _, line := range lineSeparator.Split(input, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, ParseLine(line, now))
	}
	return out
}

// Placeholder is the record emitted for an unparseable line.
func Placeholder(now time.Time) domain.Transaction {
	return domain.Transaction{
		ID:          newID(),
		Date:        now.Format(domain.DateLayout),
		Amount:      0,
		Description: PlaceholderDescription,
		Category:    domain.Uncategorized,
		Confidence:  0,
		By:          "System",
		Tags:        []string{},
		Type:        domain.Debit,
	}
}

// IsPlaceholder reports whether tx came from a line that failed to parse.
func IsPlaceholder(tx domain.Transaction) bool {
	return tx.Description == PlaceholderDescription && tx.By == "System" && tx.Amount == 0
}
