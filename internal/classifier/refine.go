package classifier

import (
	"context"
	"errors"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/logger"
	"github.com/dvloznov/expense-analyzer/internal/parser"
)

// AcceptThreshold is the score the top label must exceed to be applied.
const AcceptThreshold = 0.4

// CandidateLabels are offered to zero-shot oracles.
var CandidateLabels = []string{
	"Food & Drink", "Shopping", "Transport", "Bills", "Entertainment", "Health",
	"Investment", "Salary", "Transfer", "Services", "Tax",
}

// CategoryLabels returns every category name except Uncategorized, for
// oracles that predict categories directly.
func CategoryLabels() []string {
	out := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		if c != domain.Uncategorized {
			out = append(out, string(c))
		}
	}
	return out
}

// labelCategories maps oracle labels that are not category names.
// Transfer has no category and is never applied.
var labelCategories = map[string]domain.Category{
	"Transport": domain.Commute,
	"Bills":     domain.BillsUtilities,
	"Health":    domain.HealthWellness,
	"Salary":    domain.Income,
}

// LabelCategory maps an oracle label into the category set.
func LabelCategory(label string) (domain.Category, bool) {
	if c, ok := labelCategories[label]; ok {
		return c, true
	}
	c := domain.Category(label)
	if c.Valid() && c != domain.Uncategorized {
		return c, true
	}
	return "", false
}

// RefineOptions tunes Refine.
type RefineOptions struct {
	Model  string
	Labels []string // CandidateLabels when empty
	// OnProgress is called after each draft with the count done so far.
	OnProgress func(done, total int)
}

// Refine classifies the uncategorized debits in drafts one at a time,
// updating them in place, and returns how many were recategorized. A failed
// item keeps its rule-engine category. Cancellation stops the loop and is
// returned; drafts already refined keep their new values.
func Refine(ctx context.Context, drafts []domain.Transaction, c Classifier, opts RefineOptions) (int, error) {
	log := logger.FromContext(ctx)

	labels := opts.Labels
	if len(labels) == 0 {
		labels = CandidateLabels
	}

	refined := 0
	for i := range drafts {
		tx := &drafts[i]
		if tx.Category == domain.Uncategorized && tx.Type == domain.Debit && !parser.IsPlaceholder(*tx) {
			if err := ctx.Err(); err != nil {
				return refined, err
			}

			res, err := c.Classify(ctx, tx.Description, labels, opts.Model)
			switch {
			case errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled):
				log.Info().Int("refined", refined).Msg("AI classification cancelled")
				return refined, err
			case err != nil:
				log.Warn().Err(err).Str("description", tx.Description).Msg("AI classification failed")
			default:
				if applyTop(tx, res) {
					refined++
				}
			}
		}
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(drafts))
		}
	}
	return refined, nil
}

func applyTop(tx *domain.Transaction, res *Result) bool {
	label, score, ok := res.Top()
	if !ok || score <= AcceptThreshold {
		return false
	}
	cat, ok := LabelCategory(label)
	if !ok {
		return false
	}
	tx.Category = cat
	tx.Confidence = score
	return true
}
