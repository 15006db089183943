// Package app opens the services shared by the API server and the CLI from a
// loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/expense-analyzer/internal/attachments"
	"github.com/dvloznov/expense-analyzer/internal/classifier"
	"github.com/dvloznov/expense-analyzer/internal/config"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/logger"
	"github.com/dvloznov/expense-analyzer/internal/notionsync"
	"github.com/dvloznov/expense-analyzer/internal/store"
	"github.com/dvloznov/expense-analyzer/internal/warehouse"
)

// App bundles the storage-backed services.
type App struct {
	Config *config.Config
	KV     store.KV
	Repo   *ledger.Repository
	Blobs  attachments.BlobStore

	closers []func() error
}

// Open opens the KV store and the attachment store named by cfg.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)

	kv, err := store.Open(cfg.StorageBackend, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("app.Open: %w", err)
	}
	a := &App{
		Config:  cfg,
		KV:      kv,
		Repo:    ledger.New(kv),
		closers: []func() error{kv.Close},
	}

	switch cfg.AttachmentBackend {
	case config.AttachmentsGCS:
		gcs, err := attachments.NewGCSBlobStore(ctx, cfg.AttachmentBucket)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.Open: %w", err)
		}
		a.Blobs = gcs
		a.closers = append(a.closers, gcs.Close)
	default:
		a.Blobs = attachments.NewKVBlobStore(kv)
	}

	log.Debug().
		Str("storage", cfg.StorageBackend).
		Str("path", cfg.StoragePath).
		Str("attachments", cfg.AttachmentBackend).
		Msg("Opened stores")

	return a, nil
}

// Close releases every store opened by Open.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Classifier builds the configured AI oracle, or nil when classification is
// disabled. The Gemini oracle runs behind the timeout worker and retries a
// timed-out call once. The Bayes model is trained on the committed ledger.
func (a *App) Classifier(ctx context.Context) (classifier.Classifier, error) {
	log := logger.FromContext(ctx)

	switch a.Config.Classifier {
	case config.ClassifierGenAI:
		g, err := classifier.NewGenAIClassifier(ctx, a.Config.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("App.Classifier: %w", err)
		}
		w := classifier.NewWorker(classifier.OracleBackend{Oracle: g},
			classifier.WithProgress(func(p classifier.Progress) {
				log.Debug().Str("status", p.Status).Str("model", p.Name).Float64("progress", p.Progress).Msg("Classifier progress")
			}))
		return classifier.WithRetry(w, classifier.DefaultRetries), nil

	case config.ClassifierBayes:
		txns, err := a.Repo.Transactions(ctx)
		if err != nil {
			return nil, fmt.Errorf("App.Classifier: %w", err)
		}
		b := classifier.NewBayesClassifier()
		if err := b.Train(txns); err != nil {
			return nil, fmt.Errorf("App.Classifier: %w", err)
		}
		log.Info().Int("transactions", len(txns)).Msg("Trained Bayes classifier")
		return b, nil

	default:
		return nil, nil
	}
}

// Notion returns a Notion client, or nil when no token is configured.
func (a *App) Notion() notionsync.Pages {
	if !a.Config.NotionEnabled() {
		return nil
	}
	return notionsync.NewClient(a.Config.NotionToken)
}

// Warehouse opens the BigQuery exporter and makes sure its table exists. It
// returns nil when no project is configured. The caller closes the exporter.
func (a *App) Warehouse(ctx context.Context) (*warehouse.Exporter, error) {
	if !a.Config.WarehouseEnabled() {
		return nil, nil
	}
	e, err := warehouse.NewExporter(ctx, a.Config.BigQueryProject, a.Config.BigQueryDataset, a.Config.BigQueryTable)
	if err != nil {
		return nil, fmt.Errorf("App.Warehouse: %w", err)
	}
	if err := e.EnsureTable(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("App.Warehouse: %w", err)
	}
	return e, nil
}

// Labels returns the candidate labels for the configured classifier. The
// Bayes model predicts category names directly.
func (a *App) Labels() []string {
	if a.Config.Classifier == config.ClassifierBayes {
		return classifier.CategoryLabels()
	}
	return classifier.CandidateLabels
}
