package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/notionsync"
	"github.com/dvloznov/expense-analyzer/internal/sheets"
	"github.com/dvloznov/expense-analyzer/internal/warehouse"
)

// SheetsFactory builds a spreadsheet client for a stored configuration.
type SheetsFactory func(ctx context.Context, cfg domain.SheetsConfig) (sheets.Values, error)

// WarehouseExporter streams transactions into the analytics warehouse.
type WarehouseExporter interface {
	Export(ctx context.Context, txns []domain.Transaction) (warehouse.ExportResult, error)
}

// SyncHandler pushes the ledger to remote destinations. Every sync is
// additive: rows already present remotely are left alone.
type SyncHandler struct {
	repo       *ledger.Repository
	newSheets  SheetsFactory
	notion     notionsync.Pages
	notionDBID string
	warehouse  WarehouseExporter
	log        zerolog.Logger
}

// SyncOptions holds the optional destinations. Nil fields disable them.
type SyncOptions struct {
	Sheets     SheetsFactory
	Notion     notionsync.Pages
	NotionDBID string
	Warehouse  WarehouseExporter
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(repo *ledger.Repository, opts SyncOptions, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		repo:       repo,
		newSheets:  opts.Sheets,
		notion:     opts.Notion,
		notionDBID: opts.NotionDBID,
		warehouse:  opts.Warehouse,
		log:        log,
	}
}

// SyncSheets handles POST /api/sync/sheets. A config in the body overrides
// the stored one for this call.
func (h *SyncHandler) SyncSheets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body domain.SheetsConfig
	if err := decodeJSON(w, r, &body); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg := body
	if cfg.SheetID == "" {
		stored, err := h.repo.SheetsConfig(ctx)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to load sheets config")
			return
		}
		if stored != nil {
			cfg = *stored
		}
	}
	if err := sheets.ValidateConfig(cfg); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing configuration")
		return
	}
	if h.newSheets == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Sheets sync is not available")
		return
	}

	txns, err := h.repo.Transactions(ctx)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load transactions")
		return
	}

	svc, err := h.newSheets(ctx, cfg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create sheets client")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create sheets client")
		return
	}

	result, err := sheets.Sync(ctx, svc, cfg, txns)
	if err != nil {
		h.log.Error().Err(err).Msg("Sheets sync failed")
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// SyncNotion handles POST /api/sync/notion with optional body {"dry_run": true}.
func (h *SyncHandler) SyncNotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		DryRun bool `json:"dry_run"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txns, err := h.repo.Transactions(ctx)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load transactions")
		return
	}

	result, err := notionsync.SyncTransactions(ctx, h.notion, h.notionDBID, txns, req.DryRun)
	if err != nil {
		writeServiceError(w, h.log, err, "Notion sync failed")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// ExportWarehouse handles POST /api/sync/warehouse
func (h *SyncHandler) ExportWarehouse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.warehouse == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Warehouse export is not configured")
		return
	}

	txns, err := h.repo.Transactions(ctx)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load transactions")
		return
	}

	result, err := h.warehouse.Export(ctx, txns)
	if err != nil {
		h.log.Error().Err(err).Msg("Warehouse export failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Warehouse export failed")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}
