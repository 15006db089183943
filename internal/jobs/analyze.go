package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/expense-analyzer/internal/classifier"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
	"github.com/dvloznov/expense-analyzer/internal/pipeline"
)

// TripSource supplies the trips used for trip tagging.
type TripSource interface {
	Trips(ctx context.Context) ([]domain.Trip, error)
}

// AnalyzeDeps are the collaborators of the analysis job handler.
type AnalyzeDeps struct {
	Trips      TripSource
	Batches    *pipeline.Batches
	Store      JobStore
	Classifier classifier.Classifier // nil disables the AI pass
	Labels     []string
}

// NewAnalyzeHandler returns the handler that runs the analysis pipeline for
// a job and registers the resulting batch. The batch is registered even when
// the AI pass fails or is cancelled, so reviewed drafts are never lost.
func NewAnalyzeHandler(d AnalyzeDeps) JobHandler {
	return func(ctx context.Context, job *AnalyzeJob) error {
		log := logger.FromContext(ctx).With().Str("job_id", job.JobID).Logger()

		trips, err := d.Trips.Trips(ctx)
		if err != nil {
			return fmt.Errorf("AnalyzeHandler: load trips: %w", err)
		}

		opts := pipeline.Options{
			Model:  job.Model,
			Labels: d.Labels,
			OnProgress: func(done, total int) {
				if d.Store != nil {
					_ = d.Store.UpdateProgress(ctx, job.JobID, done, total)
				}
			},
		}
		if job.UseAI {
			opts.Classifier = d.Classifier
		}
		if job.UseAI && d.Classifier == nil {
			log.Warn().Msg("AI requested but no classifier configured, running rules only")
		}

		batch, err := pipeline.Analyze(logger.WithContext(ctx, log), job.Input, trips, opts)
		if batch != nil {
			d.Batches.Put(batch)
			job.BatchID = batch.ID
		}
		if err != nil {
			return fmt.Errorf("AnalyzeHandler: %w", err)
		}
		return nil
	}
}
