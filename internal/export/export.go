// Package export writes selected transactions out as CSV, XLSX or a
// reimbursement ZIP bundle with the attached bills.
package export

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/attachments"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
)

const (
	csvHeader     = "Date,Description,Amount,Category,Type,Tags,By"
	summaryHeader = "Date,Description,Amount,Category,Tags"

	// ZipFolder is the directory every entry of a reimbursement bundle sits in.
	ZipFolder = "reimbursement_docs"
)

// FileName returns the download name for an export, e.g.
// transactions_2025-09-01.csv or reimbursement_2025-09-01.zip.
func FileName(format string, now time.Time) string {
	base := "transactions"
	if format == "zip" {
		base = "reimbursement"
	}
	return base + "_" + now.UTC().Format(domain.DateLayout) + "." + format
}

// quote wraps s in double quotes, doubling any quote inside.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

// WriteCSV writes the full transaction export. Description and tags are
// always quoted; tags are joined with ";".
func WriteCSV(w io.Writer, txns []domain.Transaction) error {
	bw := bufio.NewWriter(w)
	lines := make([]string, 0, len(txns)+1)
	lines = append(lines, csvHeader)
	for _, t := range txns {
		lines = append(lines, strings.Join([]string{
			t.Date,
			quote(t.Description),
			formatAmount(t.Amount),
			string(t.Category),
			string(t.Type),
			quote(strings.Join(t.Tags, ";")),
			t.By,
		}, ","))
	}
	if _, err := bw.WriteString(strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("WriteCSV: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("WriteCSV: flush: %w", err)
	}
	return nil
}

// WriteSummaryCSV writes the reimbursement summary sheet.
func WriteSummaryCSV(w io.Writer, txns []domain.Transaction) error {
	lines := make([]string, 0, len(txns)+1)
	lines = append(lines, summaryHeader)
	for _, t := range txns {
		lines = append(lines, strings.Join([]string{
			t.Date,
			quote(t.Description),
			formatAmount(t.Amount),
			string(t.Category),
			quote(strings.Join(t.Tags, ";")),
		}, ","))
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("WriteSummaryCSV: %w", err)
	}
	return nil
}

// WriteZIP bundles a summary and every retrievable attachment of txns into
// a ZIP archive. Attachments missing from the store are skipped. It returns
// the number of attachments written.
func WriteZIP(ctx context.Context, w io.Writer, txns []domain.Transaction, blobs attachments.BlobStore) (int, error) {
	log := logger.FromContext(ctx)
	zw := zip.NewWriter(w)

	sw, err := zw.Create(ZipFolder + "/summary.csv")
	if err != nil {
		return 0, fmt.Errorf("WriteZIP: create summary: %w", err)
	}
	if err := WriteSummaryCSV(sw, txns); err != nil {
		return 0, fmt.Errorf("WriteZIP: %w", err)
	}

	count := 0
	for _, t := range txns {
		for _, attID := range t.Attachments {
			if err := ctx.Err(); err != nil {
				return count, fmt.Errorf("WriteZIP: %w", err)
			}
			blob, err := blobs.Get(ctx, attID)
			if errors.Is(err, attachments.ErrNotFound) {
				log.Warn().Str("attachment_id", attID).Str("transaction_id", t.ID).Msg("Attachment missing, skipping")
				continue
			}
			if err != nil {
				return count, fmt.Errorf("WriteZIP: load attachment %s: %w", attID, err)
			}

			name := ZipFolder + "/" + attachments.ArchiveName(t, domain.Attachment{ID: attID, FileType: blob.FileType})
			fw, err := zw.Create(name)
			if err != nil {
				return count, fmt.Errorf("WriteZIP: create %s: %w", name, err)
			}
			if _, err := fw.Write(blob.Data); err != nil {
				return count, fmt.Errorf("WriteZIP: write %s: %w", name, err)
			}
			count++
		}
	}

	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("WriteZIP: finalize archive: %w", err)
	}
	log.Info().Int("transactions", len(txns)).Int("attachments", count).Msg("Reimbursement bundle written")
	return count, nil
}
