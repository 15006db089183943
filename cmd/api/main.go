package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/api"
	"github.com/dvloznov/expense-analyzer/internal/api/handlers"
	"github.com/dvloznov/expense-analyzer/internal/app"
	"github.com/dvloznov/expense-analyzer/internal/config"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/jobs"
	"github.com/dvloznov/expense-analyzer/internal/jobs/inmemory"
	"github.com/dvloznov/expense-analyzer/internal/logger"
	"github.com/dvloznov/expense-analyzer/internal/pipeline"
	"github.com/dvloznov/expense-analyzer/internal/sheets"
)

func main() {
	// Load configuration, then let flags override it
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	port := flag.String("port", cfg.Port, "HTTP server port")
	flag.Parse()
	cfg.Port = *port

	// Initialize logger
	log := logger.NewConsole(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	ctx := logger.WithContext(context.Background(), log)

	// Initialize storage
	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer a.Close()

	oracle, err := a.Classifier(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Classifier unavailable - analysis jobs will run rules only")
		oracle = nil
	}

	syncOpts := handlers.SyncOptions{
		Sheets: func(ctx context.Context, c domain.SheetsConfig) (sheets.Values, error) {
			return sheets.NewService(ctx, c)
		},
		Notion:     a.Notion(),
		NotionDBID: cfg.NotionDBID,
	}
	wh, err := a.Warehouse(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Warehouse export disabled")
	} else if wh != nil {
		defer wh.Close()
		syncOpts.Warehouse = wh
	}

	// Initialize job infrastructure
	batches := pipeline.NewBatches()
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := jobs.NewAnalyzeHandler(jobs.AnalyzeDeps{
		Trips:      a.Repo,
		Batches:    batches,
		Store:      jobStore,
		Classifier: oracle,
		Labels:     a.Labels(),
	})

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	router := api.NewRouter(api.Deps{
		Repo:      a.Repo,
		Batches:   batches,
		Blobs:     a.Blobs,
		Publisher: jobQueue,
		JobStore:  jobStore,
		Canceller: jobQueue,
		Sync:      syncOpts,
		APIToken:  cfg.APIToken,
		Log:       log,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.StorageBackend).
			Str("classifier", cfg.Classifier).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
