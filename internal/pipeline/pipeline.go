// Package pipeline turns pasted statement text into a review batch:
// parse, apply the keyword rules, then optionally let an AI oracle have a go
// at whatever is still uncategorized.
package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/classifier"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
)

// Options configures Analyze. A nil Classifier skips the AI pass.
type Options struct {
	Classifier classifier.Classifier
	Model      string
	Labels     []string
	OnProgress func(done, total int)
	Now        time.Time // time.Now() when zero
}

// NewAnalysisPipeline creates the standard parse → rules → refine pipeline.
func NewAnalysisPipeline(opts Options) *Pipeline {
	steps := []PipelineStep{&ParseStep{}, &ApplyRulesStep{}}
	if opts.Classifier != nil {
		steps = append(steps, &RefineStep{
			Classifier: opts.Classifier,
			Options: classifier.RefineOptions{
				Model:      opts.Model,
				Labels:     opts.Labels,
				OnProgress: opts.OnProgress,
			},
		})
	}
	return NewPipeline(steps...)
}

// Analyze parses input into a new review batch. If the AI pass is cancelled
// or fails, the batch is still returned with every draft it holds so far,
// together with the error.
func Analyze(ctx context.Context, input string, trips []domain.Trip, opts Options) (*ReviewBatch, error) {
	log := logger.FromContext(ctx)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	state := &PipelineState{Input: input, Now: now, Trips: trips}
	err := NewAnalysisPipeline(opts).Execute(ctx, state)

	batch := NewReviewBatch(state.Drafts)
	log.Info().
		Str("batch_id", batch.ID).
		Int("drafts", batch.Len()).
		Int("placeholders", state.Placeholders).
		Int("ai_refined", state.Refined).
		Msg("Analysis finished")

	return batch, err
}
