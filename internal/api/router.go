// Package api assembles the HTTP router of the expense analyzer.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/handlers"
	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/attachments"
	"github.com/dvloznov/expense-analyzer/internal/jobs"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/pipeline"
)

// Deps are the services the router dispatches to.
type Deps struct {
	Repo      *ledger.Repository
	Batches   *pipeline.Batches
	Blobs     attachments.BlobStore
	Publisher jobs.Publisher
	JobStore  jobs.JobStore
	Canceller jobs.Canceller
	Sync      handlers.SyncOptions

	// APIToken enables bearer authentication on /api when set.
	APIToken string
	// Now is the clock used by the insight and export views. Defaults to time.Now.
	Now func() time.Time
	Log zerolog.Logger
}

// NewRouter wires every endpoint behind the shared middleware stack.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	log := d.Log

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS)

	transactions := handlers.NewTransactionsHandler(d.Repo, log)
	analysis := handlers.NewAnalysisHandler(d.Repo, d.Batches, d.Publisher, log)
	jobsH := handlers.NewJobsHandler(d.JobStore, d.Canceller, log)
	trips := handlers.NewTripsHandler(d.Repo, log)
	insights := handlers.NewInsightsHandler(d.Repo, d.Now, log)
	exports := handlers.NewExportHandler(d.Repo, d.Blobs, d.Now, log)
	syncs := handlers.NewSyncHandler(d.Repo, d.Sync, log)
	atts := handlers.NewAttachmentsHandler(d.Repo, d.Batches, d.Blobs, log)
	settings := handlers.NewSettingsHandler(d.Repo, log)

	// Public endpoints
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(d.APIToken))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", transactions.ListTransactions)
			r.Post("/delete", transactions.DeleteTransactions)
			r.Patch("/{id}", transactions.UpdateTransaction)
			r.Delete("/{id}", transactions.DeleteTransaction)
			r.Post("/{id}/tags", transactions.AddTag)
			r.Delete("/{id}/tags/{tag}", transactions.RemoveTag)
		})

		r.Post("/analyze", analysis.Analyze)
		r.Post("/analyze/jobs", analysis.EnqueueAnalysis)

		r.Route("/batches/{id}", func(r chi.Router) {
			r.Get("/", analysis.GetBatch)
			r.Delete("/", analysis.DiscardBatch)
			r.Post("/commit", analysis.CommitBatch)
			r.Patch("/items/{txid}", analysis.EditBatchItem)
			r.Delete("/items/{txid}", analysis.RemoveBatchItem)
			r.Post("/items/{txid}/attachments", atts.UploadDraft)
		})

		r.Get("/jobs", jobsH.ListJobs)
		r.Get("/jobs/{id}", jobsH.GetJob)
		r.Post("/jobs/{id}/cancel", jobsH.CancelJob)

		r.Get("/trips", trips.ListTrips)
		r.Post("/trips", trips.AddTrip)
		r.Delete("/trips/{id}", trips.RemoveTrip)

		r.Get("/recurring", insights.Recurring)
		r.Get("/dashboard", insights.Dashboard)

		r.Post("/export/{format}", exports.Export)

		r.Post("/sync/sheets", syncs.SyncSheets)
		r.Post("/sync/notion", syncs.SyncNotion)
		r.Post("/sync/warehouse", syncs.ExportWarehouse)

		r.Post("/attachments", atts.Upload)
		r.Get("/attachments/{id}", atts.Download)
		r.Delete("/attachments/{id}", atts.Delete)

		r.Get("/tags", settings.ListTags)
		r.Put("/tags", settings.SaveTags)
		r.Get("/tags/official", settings.ListOfficialTags)
		r.Put("/tags/official", settings.SaveOfficialTags)
		r.Get("/profile", settings.GetProfile)
		r.Put("/profile", settings.SaveProfile)
		r.Get("/settings/sheets", settings.GetSheetsConfig)
		r.Put("/settings/sheets", settings.SaveSheetsConfig)
	})

	return r
}
