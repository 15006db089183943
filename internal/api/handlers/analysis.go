package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/jobs"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/parser"
	"github.com/dvloznov/expense-analyzer/internal/pipeline"
)

// AnalysisHandler turns pasted text into review batches and commits them.
type AnalysisHandler struct {
	repo      *ledger.Repository
	batches   *pipeline.Batches
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(repo *ledger.Repository, batches *pipeline.Batches, publisher jobs.Publisher, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		repo:      repo,
		batches:   batches,
		publisher: publisher,
		log:       log,
	}
}

type analyzeRequest struct {
	Text  string `json:"text"`
	UseAI bool   `json:"use_ai"`
	Model string `json:"model"`
}

type batchResponse struct {
	BatchID      string               `json:"batch_id"`
	CreatedAt    time.Time            `json:"created_at"`
	Items        []domain.Transaction `json:"items"`
	Placeholders int                  `json:"placeholders"`
}

func newBatchResponse(b *pipeline.ReviewBatch) batchResponse {
	items := b.Items()
	placeholders := 0
	for _, it := range items {
		if parser.IsPlaceholder(it) {
			placeholders++
		}
	}
	return batchResponse{BatchID: b.ID, CreatedAt: b.CreatedAt, Items: items, Placeholders: placeholders}
}

// Analyze handles POST /api/analyze. It runs the parser and rules only and
// answers with the new batch.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	trips, err := h.repo.Trips(ctx)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load trips")
		return
	}

	batch, err := pipeline.Analyze(ctx, req.Text, trips, pipeline.Options{})
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to analyze text")
		return
	}
	h.batches.Put(batch)

	middleware.WriteJSON(w, http.StatusOK, newBatchResponse(batch))
}

// EnqueueAnalysis handles POST /api/analyze/jobs. The job runs in the
// background, with the AI pass when requested.
func (h *AnalysisHandler) EnqueueAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	job := &jobs.AnalyzeJob{
		Input: req.Text,
		UseAI: req.UseAI,
		Model: req.Model,
	}
	if err := h.publisher.PublishAnalyze(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Bool("use_ai", req.UseAI).Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(jobs.JobStatusPending),
	})
}

func (h *AnalysisHandler) batch(w http.ResponseWriter, r *http.Request) (*pipeline.ReviewBatch, bool) {
	b, ok := h.batches.Get(urlParam(r, "id"))
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Batch not found")
		return nil, false
	}
	return b, true
}

// GetBatch handles GET /api/batches/{id}
func (h *AnalysisHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := h.batch(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newBatchResponse(b))
}

// EditBatchItem handles PATCH /api/batches/{id}/items/{txid}
func (h *AnalysisHandler) EditBatchItem(w http.ResponseWriter, r *http.Request) {
	b, ok := h.batch(w, r)
	if !ok {
		return
	}

	var patch domain.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := b.Edit(urlParam(r, "txid"), patch)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to edit draft")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// RemoveBatchItem handles DELETE /api/batches/{id}/items/{txid}
func (h *AnalysisHandler) RemoveBatchItem(w http.ResponseWriter, r *http.Request) {
	b, ok := h.batch(w, r)
	if !ok {
		return
	}
	if !b.Remove(urlParam(r, "txid")) {
		middleware.WriteError(w, http.StatusNotFound, "Draft not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DiscardBatch handles DELETE /api/batches/{id}
func (h *AnalysisHandler) DiscardBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.batch(w, r); !ok {
		return
	}
	h.batches.Delete(urlParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// CommitBatch handles POST /api/batches/{id}/commit. On success the batch is
// forgotten; on failure it stays available for further edits.
func (h *AnalysisHandler) CommitBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := h.batch(w, r)
	if !ok {
		return
	}

	n, err := h.repo.CommitBatch(r.Context(), b.Items())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to commit batch")
		return
	}
	h.batches.Delete(b.ID)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id":  b.ID,
		"committed": n,
	})
}
