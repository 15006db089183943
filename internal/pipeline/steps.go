package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/classifier"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
	"github.com/dvloznov/expense-analyzer/internal/parser"
	"github.com/dvloznov/expense-analyzer/internal/rules"
)

// PipelineStep represents a single step in the analysis pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Input  string
	Now    time.Time
	Trips  []domain.Trip
	Drafts []domain.Transaction

	Placeholders int
	Refined      int
}

// Step 1: ParseStep splits the pasted text into one draft per line.
type ParseStep struct{}

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Drafts = parser.ParseLines(state.Input, state.Now)
	for _, d := range state.Drafts {
		if parser.IsPlaceholder(d) {
			state.Placeholders++
		}
	}
	if state.Placeholders > 0 {
		log := logger.FromContext(ctx)
		log.Warn().Int("placeholders", state.Placeholders).Msg("Some lines could not be parsed")
	}
	return nil
}

// Step 2: ApplyRulesStep tags and categorizes every parsed draft.
type ApplyRulesStep struct{}

func (s *ApplyRulesStep) Execute(ctx context.Context, state *PipelineState) error {
	for i := range state.Drafts {
		if parser.IsPlaceholder(state.Drafts[i]) {
			continue
		}
		rules.Apply(&state.Drafts[i], state.Trips)
	}
	return nil
}

// Step 3: RefineStep sends drafts still uncategorized to the AI oracle.
type RefineStep struct {
	Classifier classifier.Classifier
	Options    classifier.RefineOptions
}

func (s *RefineStep) Execute(ctx context.Context, state *PipelineState) error {
	n, err := classifier.Refine(ctx, state.Drafts, s.Classifier, s.Options)
	state.Refined = n
	if err != nil {
		return fmt.Errorf("RefineStep: %w", err)
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
