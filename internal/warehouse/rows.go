package warehouse

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// TransactionRow is one row of the expenses table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC
	Direction       string     `bigquery:"direction"`        // dr | cr

	Description string              `bigquery:"description"`
	Category    string              `bigquery:"category"`
	Confidence  float64             `bigquery:"confidence"`
	PaidBy      bigquery.NullString `bigquery:"paid_by"` // NULLABLE

	Tags            []string `bigquery:"tags"` // REPEATED STRING
	AttachmentCount int64    `bigquery:"attachment_count"`

	ExportedTS time.Time `bigquery:"exported_ts"`
}

// ToRow converts a ledger transaction. It fails when the date does not parse.
func ToRow(tx domain.Transaction, exportedAt time.Time) (*TransactionRow, error) {
	d, err := civil.ParseDate(tx.Date)
	if err != nil {
		return nil, fmt.Errorf("ToRow: %s: invalid date %q: %w", tx.ID, tx.Date, err)
	}

	amount := new(big.Rat)
	// Two decimal places keeps paise exact in NUMERIC.
	if _, ok := amount.SetString(fmt.Sprintf("%.2f", tx.Amount)); !ok {
		return nil, fmt.Errorf("ToRow: %s: invalid amount %v", tx.ID, tx.Amount)
	}

	tags := tx.Tags
	if tags == nil {
		tags = []string{}
	}

	return &TransactionRow{
		TransactionID:   tx.ID,
		TransactionDate: d,
		Amount:          amount,
		Direction:       string(tx.Type),
		Description:     tx.Description,
		Category:        string(tx.Category),
		Confidence:      tx.Confidence,
		PaidBy:          bigquery.NullString{StringVal: tx.By, Valid: tx.By != ""},
		Tags:            tags,
		AttachmentCount: int64(len(tx.Attachments)),
		ExportedTS:      exportedAt.UTC(),
	}, nil
}
