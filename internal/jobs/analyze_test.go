package jobs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/expense-analyzer/internal/classifier"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/jobs"
	"github.com/dvloznov/expense-analyzer/internal/jobs/inmemory"
	"github.com/dvloznov/expense-analyzer/internal/pipeline"
)

type tripsFunc func(ctx context.Context) ([]domain.Trip, error)

func (f tripsFunc) Trips(ctx context.Context) ([]domain.Trip, error) { return f(ctx) }

const input = `09/08/2025 Dmart purchase 4,426.03 Binish dr
04/08/2025 Haircut 300 Anu dr`

func noTrips(ctx context.Context) ([]domain.Trip, error) { return nil, nil }

func TestAnalyzeHandler(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	batches := pipeline.NewBatches()

	calls := 0
	c := classifier.Func(func(ctx context.Context, text string, labels []string, model string) (*classifier.Result, error) {
		calls++
		return &classifier.Result{Labels: []string{"Shopping"}, Scores: []float64{0.9}}, nil
	})

	handler := jobs.NewAnalyzeHandler(jobs.AnalyzeDeps{
		Trips:      tripsFunc(noTrips),
		Batches:    batches,
		Store:      store,
		Classifier: c,
	})

	job := &jobs.AnalyzeJob{JobID: "j1", Input: input, UseAI: true}
	_ = store.SaveJob(ctx, job)
	if err := handler(ctx, job); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	batch, ok := batches.Get(job.BatchID)
	if !ok || batch.Len() != 2 {
		t.Fatalf("batch not registered: %v", job.BatchID)
	}
	if calls != 1 {
		t.Errorf("classifier calls = %d, want 1", calls)
	}
	stored, _ := store.GetJob(ctx, "j1")
	if stored.Done != 2 || stored.Total != 2 {
		t.Errorf("progress = %d/%d", stored.Done, stored.Total)
	}

	// Without UseAI the classifier is never consulted.
	calls = 0
	if err := handler(ctx, &jobs.AnalyzeJob{JobID: "j2", Input: input}); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if calls != 0 {
		t.Error("classifier used although AI was not requested")
	}
}

func TestAnalyzeHandler_CancelKeepsBatch(t *testing.T) {
	batches := pipeline.NewBatches()
	c := classifier.Func(func(ctx context.Context, text string, labels []string, model string) (*classifier.Result, error) {
		return nil, classifier.ErrCancelled
	})
	handler := jobs.NewAnalyzeHandler(jobs.AnalyzeDeps{Trips: tripsFunc(noTrips), Batches: batches, Classifier: c})

	job := &jobs.AnalyzeJob{JobID: "j", Input: input, UseAI: true}
	err := handler(context.Background(), job)
	if !errors.Is(err, classifier.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if _, ok := batches.Get(job.BatchID); !ok {
		t.Error("partial batch must be registered")
	}
}

func TestAnalyzeHandler_TripError(t *testing.T) {
	handler := jobs.NewAnalyzeHandler(jobs.AnalyzeDeps{
		Trips: tripsFunc(func(ctx context.Context) ([]domain.Trip, error) {
			return nil, errors.New("disk gone")
		}),
		Batches: pipeline.NewBatches(),
	})
	if err := handler(context.Background(), &jobs.AnalyzeJob{JobID: "j", Input: input}); err == nil {
		t.Error("expected error")
	}
}
