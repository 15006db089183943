package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
)

// TripsHandler handles trip windows.
type TripsHandler struct {
	repo *ledger.Repository
	log  zerolog.Logger
}

// NewTripsHandler creates a new trips handler.
func NewTripsHandler(repo *ledger.Repository, log zerolog.Logger) *TripsHandler {
	return &TripsHandler{repo: repo, log: log}
}

// ListTrips handles GET /api/trips
func (h *TripsHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.repo.Trips(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list trips")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, trips)
}

// AddTrip handles POST /api/trips
func (h *TripsHandler) AddTrip(w http.ResponseWriter, r *http.Request) {
	var trip domain.Trip
	if err := decodeJSON(w, r, &trip); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.repo.AddTrip(r.Context(), trip)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to add trip")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// RemoveTrip handles DELETE /api/trips/{id}
func (h *TripsHandler) RemoveTrip(w http.ResponseWriter, r *http.Request) {
	found, err := h.repo.RemoveTrip(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to remove trip")
		return
	}
	if !found {
		middleware.WriteError(w, http.StatusNotFound, "Trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
