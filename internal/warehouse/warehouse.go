// Package warehouse copies ledger transactions into a BigQuery table for
// long-range analysis.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
)

// BatchSize is the number of rows sent per streaming insert.
const BatchSize = 500

// Inserter is satisfied by *bigquery.Inserter.
type Inserter interface {
	Put(ctx context.Context, src interface{}) error
}

// ExportResult reports how many rows were written and skipped.
type ExportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Export converts txns to rows and inserts them in batches of BatchSize.
// Transactions that cannot be converted are logged and skipped.
func Export(ctx context.Context, ins Inserter, txns []domain.Transaction, now time.Time) (ExportResult, error) {
	log := logger.FromContext(ctx)

	var res ExportResult
	rows := make([]*TransactionRow, 0, len(txns))
	for _, tx := range txns {
		row, err := ToRow(tx, now)
		if err != nil {
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Skipping transaction")
			res.Skipped++
			continue
		}
		rows = append(rows, row)
	}

	for i := 0; i < len(rows); i += BatchSize {
		end := i + BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := ins.Put(ctx, rows[i:end]); err != nil {
			return res, fmt.Errorf("Export: inserting rows %d-%d: %w", i, end, err)
		}
		res.Inserted += end - i
		log.Debug().Int("batch_start", i).Int("batch_end", end).Msg("Inserted batch")
	}

	log.Info().
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("Warehouse export completed")
	return res, nil
}

// Exporter owns a BigQuery client bound to one table.
type Exporter struct {
	client *bigquery.Client
	table  *bigquery.Table
}

// NewExporter creates a BigQuery client for projectID.
func NewExporter(ctx context.Context, projectID, datasetID, tableID string) (*Exporter, error) {
	if projectID == "" || datasetID == "" || tableID == "" {
		return nil, fmt.Errorf("NewExporter: project, dataset and table are required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: bigquery client: %w", err)
	}
	return &Exporter{
		client: client,
		table:  client.DatasetInProject(projectID, datasetID).Table(tableID),
	}, nil
}

// Close closes the BigQuery client connection.
func (e *Exporter) Close() error {
	return e.client.Close()
}

// EnsureTable creates the table with the TransactionRow schema if it is
// missing.
func (e *Exporter) EnsureTable(ctx context.Context) error {
	_, err := e.table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("EnsureTable: table metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: infer schema: %w", err)
	}
	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.MonthPartitioningType,
			Field: "transaction_date",
		},
	}
	if err := e.table.Create(ctx, meta); err != nil {
		return fmt.Errorf("EnsureTable: create table: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Str("table", e.table.FullyQualifiedName()).Msg("Created warehouse table")
	return nil
}

// Export writes txns through the table's streaming inserter.
func (e *Exporter) Export(ctx context.Context, txns []domain.Transaction) (ExportResult, error) {
	return Export(ctx, e.table.Inserter(), txns, time.Now())
}
