// Package sheets appends ledger transactions to a Google spreadsheet.
// Rows already present (matched on the ID column) are never touched.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
)

const (
	headerRange = "A1:G1"
	dataRange   = "A2:G"
)

// Header is the first row of a synced sheet.
var Header = []interface{}{"ID", "Date", "Description", "Amount", "Category", "Type", "Tags"}

// ErrMissingConfig is returned when the sheet ID or credentials are empty.
var ErrMissingConfig = errors.New("missing configuration")

// Values is the subset of the spreadsheet values API the sync uses.
type Values interface {
	Get(ctx context.Context, sheetID, rng string) ([][]interface{}, error)
	Update(ctx context.Context, sheetID, rng string, rows [][]interface{}) error
	Append(ctx context.Context, sheetID, rng string, rows [][]interface{}) error
}

// Result reports what a sync did.
type Result struct {
	Success     bool   `json:"success"`
	SyncedCount int    `json:"syncedCount"`
	Message     string `json:"message"`
}

// ValidateConfig checks that every field needed to authenticate is set.
func ValidateConfig(cfg domain.SheetsConfig) error {
	if strings.TrimSpace(cfg.SheetID) == "" || strings.TrimSpace(cfg.ClientEmail) == "" || strings.TrimSpace(cfg.PrivateKey) == "" {
		return ErrMissingConfig
	}
	return nil
}

// Row converts a transaction to a sheet row. Tags are joined with ",".
func Row(t domain.Transaction) []interface{} {
	return []interface{}{t.ID, t.Date, t.Description, t.Amount, string(t.Category), string(t.Type), strings.Join(t.Tags, ",")}
}

// Sync writes the header if the sheet has none, then appends a row for every
// transaction whose ID is not already in the first column.
func Sync(ctx context.Context, svc Values, cfg domain.SheetsConfig, txns []domain.Transaction) (Result, error) {
	log := logger.FromContext(ctx)

	if err := ValidateConfig(cfg); err != nil {
		return Result{}, fmt.Errorf("Sync: %w", err)
	}

	// Step 1: make sure the header row exists. A failed read is treated as an
	// empty sheet.
	hasHeader := false
	head, err := svc.Get(ctx, cfg.SheetID, headerRange)
	if err != nil {
		log.Warn().Err(err).Msg("Error reading header or empty sheet")
	} else if len(head) > 0 {
		hasHeader = true
	}
	if !hasHeader {
		if err := svc.Update(ctx, cfg.SheetID, headerRange, [][]interface{}{Header}); err != nil {
			return Result{}, fmt.Errorf("Sync: write header: %w", err)
		}
	}

	// Step 2: collect IDs already in the sheet.
	rows, err := svc.Get(ctx, cfg.SheetID, dataRange)
	if err != nil {
		return Result{}, fmt.Errorf("Sync: read rows: %w", err)
	}
	remote := make(map[string]bool, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			remote[fmt.Sprint(r[0])] = true
		}
	}

	// Step 3: append the new ones.
	var newRows [][]interface{}
	for _, t := range txns {
		if remote[t.ID] {
			continue
		}
		remote[t.ID] = true
		newRows = append(newRows, Row(t))
	}
	if len(newRows) > 0 {
		if err := svc.Append(ctx, cfg.SheetID, dataRange, newRows); err != nil {
			return Result{}, fmt.Errorf("Sync: append rows: %w", err)
		}
	}

	log.Info().
		Str("sheet_id", cfg.SheetID).
		Int("synced", len(newRows)).
		Int("existing", len(rows)).
		Msg("Sheets sync completed")

	return Result{
		Success:     true,
		SyncedCount: len(newRows),
		Message:     fmt.Sprintf("Synced %d new transactions to Sheet.", len(newRows)),
	}, nil
}

// Service is the Values implementation backed by the Sheets v4 API.
type Service struct {
	svc *gsheets.Service
}

// NewService authenticates as the configured service account. Escaped "\n"
// sequences in the private key are turned into newlines first.
func NewService(ctx context.Context, cfg domain.SheetsConfig) (*Service, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("NewService: %w", err)
	}

	conf := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
		Scopes:     []string{gsheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("NewService: create sheets client: %w", err)
	}
	return &Service{svc: svc}, nil
}

func (s *Service) Get(ctx context.Context, sheetID, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(sheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("Service.Get: %w", err)
	}
	return resp.Values, nil
}

func (s *Service) Update(ctx context.Context, sheetID, rng string, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Update(sheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("Service.Update: %w", err)
	}
	return nil
}

func (s *Service) Append(ctx context.Context, sheetID, rng string, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Append(sheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("Service.Append: %w", err)
	}
	return nil
}
