package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/attachments"
	"github.com/dvloznov/expense-analyzer/internal/export"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
)

// ExportHandler renders selected transactions as downloads.
type ExportHandler struct {
	repo  *ledger.Repository
	blobs attachments.BlobStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewExportHandler creates a new export handler. A nil now uses time.Now.
func NewExportHandler(repo *ledger.Repository, blobs attachments.BlobStore, now func() time.Time, log zerolog.Logger) *ExportHandler {
	if now == nil {
		now = time.Now
	}
	return &ExportHandler{repo: repo, blobs: blobs, now: now, log: log}
}

var contentTypes = map[string]string{
	"csv":  "text/csv; charset=utf-8",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"zip":  "application/zip",
}

// Export handles POST /api/export/{format} with body {"ids": [...]}.
// Unknown IDs are skipped.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := urlParam(r, "format")
	contentType, ok := contentTypes[format]
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Unsupported export format: "+format)
		return
	}

	var req idsRequest
	if err := decodeJSON(w, r, &req); err != nil || len(req.IDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "ids are required")
		return
	}

	txns, err := h.repo.Select(ctx, req.IDs)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load transactions")
		return
	}

	// Render into memory first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	switch format {
	case "csv":
		err = export.WriteCSV(&buf, txns)
	case "xlsx":
		err = export.WriteXLSX(&buf, txns)
	case "zip":
		var n int
		n, err = export.WriteZIP(ctx, &buf, txns, h.blobs)
		w.Header().Set("X-Attachment-Count", strconv.Itoa(n))
	}
	if err != nil {
		h.log.Error().Err(err).Str("format", format).Msg("Failed to render export")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render export")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(format, h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write export body")
	}
}
