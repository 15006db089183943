package classifier

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jbrukh/bayesian"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// BayesClassifier is an offline oracle trained on the household's own
// categorized history. Its labels are category names.
type BayesClassifier struct {
	mu      sync.RWMutex
	classes []bayesian.Class
	cl      *bayesian.Classifier
}

// NewBayesClassifier returns an untrained classifier; call Train before use.
func NewBayesClassifier() *BayesClassifier {
	return &BayesClassifier{}
}

// Terms splits a description into lowercase words, dropping punctuation and
// bare numbers.
func Terms(desc string) []string {
	desc = strings.ToLower(desc)
	desc = strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '*', '/', ',', '.', ':', '(', ')', '#':
			return ' '
		}
		return r
	}, desc)

	var terms []string
	for _, f := range strings.Fields(desc) {
		if strings.Trim(f, "0123456789") == "" {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// Train rebuilds the model from categorized debits. At least two distinct
// categories are needed.
func (b *BayesClassifier) Train(txns []domain.Transaction) error {
	seen := map[domain.Category]bool{}
	var classes []bayesian.Class
	for _, tx := range txns {
		if !trainable(tx) || seen[tx.Category] {
			continue
		}
		seen[tx.Category] = true
		classes = append(classes, bayesian.Class(tx.Category))
	}
	if len(classes) < 2 {
		return fmt.Errorf("BayesClassifier.Train: need at least two categories, found %d", len(classes))
	}

	cl := bayesian.NewClassifierTfIdf(classes...)
	for _, tx := range txns {
		if !trainable(tx) {
			continue
		}
		if terms := Terms(tx.Description); len(terms) > 0 {
			cl.Learn(terms, bayesian.Class(tx.Category))
		}
	}
	cl.ConvertTermsFreqToTfIdf()

	b.mu.Lock()
	b.classes = classes
	b.cl = cl
	b.mu.Unlock()
	return nil
}

func trainable(tx domain.Transaction) bool {
	return tx.Type == domain.Debit && tx.Category != domain.Uncategorized && tx.Category.Valid()
}

// Classify implements Classifier. Log scores are turned into probabilities
// over the classes that survive the labels filter. model is ignored.
func (b *BayesClassifier) Classify(ctx context.Context, text string, labels []string, _ string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.cl == nil {
		return nil, fmt.Errorf("BayesClassifier.Classify: classifier is not trained")
	}

	terms := Terms(text)
	if len(terms) == 0 {
		return nil, fmt.Errorf("BayesClassifier.Classify: no terms in %q", text)
	}
	logScores, _, _ := b.cl.LogScores(terms)

	allowed := map[string]bool{}
	for _, l := range labels {
		allowed[l] = true
	}

	var names []string
	var kept []float64
	for i, s := range logScores {
		name := string(b.classes[i])
		if len(allowed) > 0 && !allowed[name] {
			continue
		}
		names = append(names, name)
		kept = append(kept, s)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("BayesClassifier.Classify: no trained class among candidate labels")
	}

	return rank(names, softmax(kept), nil), nil
}

func softmax(logs []float64) []float64 {
	maxLog := math.Inf(-1)
	for _, l := range logs {
		maxLog = math.Max(maxLog, l)
	}
	var sum float64
	out := make([]float64, len(logs))
	for i, l := range logs {
		out[i] = math.Exp(l - maxLog)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
