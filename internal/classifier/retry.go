package classifier

import (
	"context"
	"errors"

	"github.com/dvloznov/expense-analyzer/internal/logger"
)

// DefaultRetries is how many extra attempts a timed-out call gets.
const DefaultRetries = 1

type retrying struct {
	next    Classifier
	retries int
}

// WithRetry retries calls that fail with ErrTimeout, up to retries extra
// attempts. Cancellation and any other error are returned at once.
func WithRetry(c Classifier, retries int) Classifier {
	return &retrying{next: c, retries: retries}
}

func (r *retrying) Classify(ctx context.Context, text string, labels []string, model string) (*Result, error) {
	log := logger.FromContext(ctx)

	for attempt := 0; ; attempt++ {
		res, err := r.next.Classify(ctx, text, labels, model)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
			return nil, err
		}
		if !errors.Is(err, ErrTimeout) || attempt >= r.retries {
			return nil, err
		}
		log.Info().Int("attempt", attempt+1).Msg("Retrying classification")
	}
}
