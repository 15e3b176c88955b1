package search

import (
	"context"

	"github.com/kailas-cloud/scout/internal/domain"
)

// Recommender proposes candidates for a rendered prompt.
type Recommender interface {
	Complete(ctx context.Context, instructions, input string) (domain.Completion, error)
}
