// Package recommender decorates the reasoning service with budget enforcement and logging.
package recommender

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/logger"
	"github.com/kailas-cloud/scout/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// Instrumented wraps a Recommender with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type Instrumented struct {
	inner  domain.Recommender
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

var _ domain.Recommender = (*Instrumented)(nil)

// NewInstrumented wraps inner. budget may be nil (no enforcement).
// The request logger from ctx is preferred over logger.
func NewInstrumented(
	inner domain.Recommender, model string,
	budget BudgetChecker, logger *zap.Logger,
) *Instrumented {
	return &Instrumented{inner: inner, model: model, budget: budget, logger: logger}
}

// Complete checks the budget, delegates to the inner recommender and records usage.
func (p *Instrumented) Complete(ctx context.Context, instructions, input string) (domain.Completion, error) {
	log := logger.FromContextOr(ctx, p.logger)

	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			log.Error("Recommender budget exceeded", zap.String("model", p.model), zap.Error(err))
			return domain.Completion{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := p.inner.Complete(ctx, instructions, input)
	duration := time.Since(start)

	if err != nil {
		log.Error("Recommender request failed",
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}

	if p.budget != nil && res.TotalTokens > 0 {
		p.budget.Record(int64(res.TotalTokens))
		remaining := metrics.RecommenderBudgetTokensRemaining
		remaining.WithLabelValues("daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues("monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	log.Debug("Recommender request completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("completion_tokens", res.CompletionTokens),
		zap.Int("total_tokens", res.TotalTokens),
		zap.Int("reply_bytes", len(res.Text)),
	)

	return res, nil
}

// HealthCheck delegates to the inner recommender when it supports health checks.
func (p *Instrumented) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("recommender health check: %w", err)
		}
	}
	return nil
}
