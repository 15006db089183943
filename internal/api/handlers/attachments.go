package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/attachments"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/pipeline"
)

// maxUploadBytes caps a single receipt upload.
const maxUploadBytes = 20 << 20

// AttachmentsHandler stores receipts and links them to committed
// transactions or to drafts still under review. Only transactions carrying
// an official tag take attachments.
type AttachmentsHandler struct {
	repo    *ledger.Repository
	batches *pipeline.Batches
	blobs   attachments.BlobStore
	log     zerolog.Logger
}

// NewAttachmentsHandler creates a new attachments handler.
func NewAttachmentsHandler(repo *ledger.Repository, batches *pipeline.Batches, blobs attachments.BlobStore, log zerolog.Logger) *AttachmentsHandler {
	return &AttachmentsHandler{repo: repo, batches: batches, blobs: blobs, log: log}
}

// upload is a parsed multipart receipt.
type upload struct {
	txID     string
	fileName string
	fileType string
	data     []byte
}

// readUpload parses the multipart body. It writes a 400 and returns false on
// a malformed request.
func readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return upload{}, false
	}
	return upload{
		txID:     r.FormValue("transaction_id"),
		fileName: header.Filename,
		fileType: header.Header.Get("Content-Type"),
		data:     data,
	}, true
}

// store saves the blob and runs link with its ID. A failed link removes the
// blob again.
func (h *AttachmentsHandler) store(ctx context.Context, w http.ResponseWriter, up upload, txID string, link func(attachmentID string) error) {
	meta, err := h.blobs.Save(ctx, domain.Attachment{
		TransactionID: txID,
		FileName:      up.fileName,
		FileType:      up.fileType,
	}, up.data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to store attachment")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store attachment")
		return
	}

	if err := link(meta.ID); err != nil {
		if delErr := h.blobs.Delete(ctx, meta.ID); delErr != nil {
			h.log.Warn().Err(delErr).Str("attachment_id", meta.ID).Msg("Failed to remove orphaned attachment")
		}
		writeServiceError(w, h.log, err, "Failed to link attachment")
		return
	}

	h.log.Info().
		Str("attachment_id", meta.ID).
		Str("transaction_id", txID).
		Str("size", attachments.HumanSize(meta.Size)).
		Msg("Attachment stored")

	middleware.WriteJSON(w, http.StatusCreated, meta)
}

// Upload handles POST /api/attachments (multipart: transaction_id, file).
func (h *AttachmentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	up, ok := readUpload(w, r)
	if !ok {
		return
	}
	if up.txID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "transaction_id is required")
		return
	}

	tx, err := h.repo.Get(ctx, up.txID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load transaction")
		return
	}
	if err := h.repo.RequireOfficial(ctx, tx); err != nil {
		writeServiceError(w, h.log, err, "Failed to load official tags")
		return
	}

	h.store(ctx, w, up, tx.ID, func(attachmentID string) error {
		_, err := h.repo.AddAttachment(ctx, tx.ID, attachmentID)
		return err
	})
}

// UploadDraft handles POST /api/batches/{id}/items/{txid}/attachments. The
// attachment travels with the draft and is committed with it.
func (h *AttachmentsHandler) UploadDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	batch, ok := h.batches.Get(urlParam(r, "id"))
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Batch not found")
		return
	}
	draft, err := batch.Item(urlParam(r, "txid"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load draft")
		return
	}
	if err := h.repo.RequireOfficial(ctx, draft); err != nil {
		writeServiceError(w, h.log, err, "Failed to load official tags")
		return
	}

	up, ok := readUpload(w, r)
	if !ok {
		return
	}
	h.store(ctx, w, up, draft.ID, func(attachmentID string) error {
		_, err := batch.Attach(draft.ID, attachmentID)
		return err
	})
}

// Download handles GET /api/attachments/{id}
func (h *AttachmentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	blob, err := h.blobs.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load attachment")
		return
	}

	disposition := mime.FormatMediaType("inline", map[string]string{"filename": blob.FileName})
	if disposition == "" {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", blob.FileType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob.Data); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write attachment body")
	}
}

// Delete handles DELETE /api/attachments/{id}. The reference is removed from
// the owning transaction before the blob itself.
func (h *AttachmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := urlParam(r, "id")

	if err := h.repo.RemoveAttachment(ctx, id); err != nil {
		writeServiceError(w, h.log, err, "Failed to unlink attachment")
		return
	}
	if err := h.blobs.Delete(ctx, id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete attachment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
