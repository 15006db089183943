package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/dashboard"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/recurring"
)

// InsightsHandler serves the read-only views computed from the ledger.
type InsightsHandler struct {
	repo *ledger.Repository
	now  func() time.Time
	log  zerolog.Logger
}

// NewInsightsHandler creates a new insights handler. A nil now uses time.Now.
func NewInsightsHandler(repo *ledger.Repository, now func() time.Time, log zerolog.Logger) *InsightsHandler {
	if now == nil {
		now = time.Now
	}
	return &InsightsHandler{repo: repo, now: now, log: log}
}

// Recurring handles GET /api/recurring
func (h *InsightsHandler) Recurring(w http.ResponseWriter, r *http.Request) {
	txns, err := h.repo.Transactions(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load transactions")
		return
	}

	payments := recurring.Detect(txns, h.now())
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments":      payments,
		"monthly_total": recurring.MonthlyTotal(payments),
	})
}

// Dashboard handles GET /api/dashboard?range=&month=
func (h *InsightsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	rng, err := dashboard.ParseRange(query.Get("range"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.repo.Transactions(ctx)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load transactions")
		return
	}
	trips, err := h.repo.Trips(ctx)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load trips")
		return
	}

	now := h.now()
	summary := dashboard.Compute(dashboard.FilterRange(txns, rng, query.Get("month"), now), trips, now)
	middleware.WriteJSON(w, http.StatusOK, summary)
}
