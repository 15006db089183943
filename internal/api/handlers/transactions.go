package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
)

// TransactionsHandler handles the committed ledger.
type TransactionsHandler struct {
	repo *ledger.Repository
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo *ledger.Repository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo: repo,
		log:  log,
	}
}

// ListTransactions handles GET /api/transactions?category=&tag=&month=
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ledger.Filter{
		Category: query.Get("category"),
		Tag:      query.Get("tag"),
		Month:    query.Get("month"),
	}

	transactions, err := h.repo.Filter(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list transactions")
		return
	}

	// Return array directly for frontend compatibility
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// UpdateTransaction handles PATCH /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.repo.Update(r.Context(), urlParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTransactions handles POST /api/transactions/delete
func (h *TransactionsHandler) DeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(w, r, &req); err != nil || len(req.IDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "ids are required")
		return
	}

	n, err := h.repo.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to delete transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// AddTag handles POST /api/transactions/{id}/tags
func (h *TransactionsHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tag string `json:"tag"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.repo.AddTag(r.Context(), urlParam(r, "id"), req.Tag)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to add tag")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// RemoveTag handles DELETE /api/transactions/{id}/tags/{tag}
func (h *TransactionsHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	tx, err := h.repo.RemoveTag(r.Context(), urlParam(r, "id"), urlParam(r, "tag"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to remove tag")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}
