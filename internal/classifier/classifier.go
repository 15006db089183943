// Package classifier bridges uncategorized drafts to an external zero-shot
// text classifier. The oracle is pluggable (Gemini, a local Bayes model, or
// anything speaking the worker message protocol); callers only see ranked
// labels with scores, a timeout and cancellation.
package classifier

import (
	"context"
	"errors"
	"sort"
)

var (
	// ErrTimeout is returned when the oracle stays silent for a full timeout window.
	ErrTimeout = errors.New("classification timed out")
	// ErrCancelled is returned when the outstanding call is cancelled by the user.
	ErrCancelled = errors.New("classification cancelled")
)

// Classifier ranks candidate labels for a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string, model string) (*Result, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, text string, labels []string, model string) (*Result, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, text string, labels []string, model string) (*Result, error) {
	return f(ctx, text, labels, model)
}

// Result holds labels ranked best first, with Scores aligned to Labels.
type Result struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Top returns the best label and its score.
func (r *Result) Top() (string, float64, bool) {
	if r == nil || len(r.Labels) == 0 || len(r.Scores) == 0 {
		return "", 0, false
	}
	return r.Labels[0], r.Scores[0], true
}

// rank sorts labels by descending score, dropping any label not in allowed
// when allowed is non-empty.
func rank(labels []string, scores []float64, allowed []string) *Result {
	keep := map[string]bool{}
	for _, l := range allowed {
		keep[l] = true
	}

	type pair struct {
		label string
		score float64
	}
	pairs := make([]pair, 0, len(labels))
	for i, l := range labels {
		if i >= len(scores) {
			break
		}
		if len(keep) > 0 && !keep[l] {
			continue
		}
		pairs = append(pairs, pair{l, scores[i]})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	out := &Result{Labels: make([]string, 0, len(pairs)), Scores: make([]float64, 0, len(pairs))}
	for _, p := range pairs {
		out.Labels = append(out.Labels, p.label)
		out.Scores = append(out.Scores, p.score)
	}
	return out
}
