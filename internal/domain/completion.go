package domain

import "context"

// KeyPrefix namespaces every key scout writes to the database.
const KeyPrefix = "scout:"

// Recommender is the contract of the external reasoning service.
// One call per request; the reply is untrusted text.
type Recommender interface {
	Complete(ctx context.Context, instructions, input string) (Completion, error)
}

// HealthChecker verifies reasoning service availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Completion carries the raw reply and token usage through the decorator chain.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
