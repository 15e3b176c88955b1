// Package search orchestrates one recommendation request end to end.
package search

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/catalog"
	"github.com/kailas-cloud/scout/internal/domain/search/recommendation"
	"github.com/kailas-cloud/scout/internal/domain/search/request"
	"github.com/kailas-cloud/scout/internal/logger"
	"github.com/kailas-cloud/scout/internal/metrics"
	"github.com/kailas-cloud/scout/internal/usecase/guardrail"
	"github.com/kailas-cloud/scout/internal/usecase/prompt"
	"github.com/kailas-cloud/scout/internal/usecase/response"
)

// Outcome labels for scout_search_requests_total.
const (
	OutcomeOK          = "ok"
	OutcomeFallback    = "fallback"
	OutcomeValidation  = "validation_error"
	OutcomeRecommender = "recommender_error"
	OutcomeBudget      = "budget_exceeded"
	OutcomeParse       = "parse_error"
	OutcomeSchema      = "schema_error"
	OutcomeUnexpected  = "unexpected_error"
)

// Outcome is a successful search result.
type Outcome struct {
	Results  []recommendation.Recommendation
	Dropped  int
	Fallback bool
}

// Service runs validate, prompt, complete, parse and enforce for each request.
type Service struct {
	catalog *catalog.Index
	rec     Recommender
	logger  *zap.Logger
}

// New creates a search service over an immutable catalog.
func New(idx *catalog.Index, rec Recommender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: idx, rec: rec, logger: logger}
}

// Vocabulary returns the tags a request may select.
func (s *Service) Vocabulary() catalog.Vocabulary { return s.catalog.Vocabulary() }

// Search handles one raw request body. Validation failures return *domain.ValidationError
// before any external call.
func (s *Service) Search(ctx context.Context, body []byte) (out Outcome, err error) {
	log := logger.FromContextOr(ctx, s.logger)

	req, err := request.Parse(body, s.catalog.Vocabulary())
	if err != nil {
		s.finish(log, OutcomeValidation, err)
		return Outcome{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Search pipeline panic",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			out, err = Outcome{}, fmt.Errorf("%w: %v", domain.ErrUnexpected, r)
			s.finish(log, OutcomeUnexpected, err)
		}
	}()

	out, err = s.run(ctx, req)
	if err != nil {
		s.finish(log, classify(err), err)
		return Outcome{}, err
	}

	if out.Dropped > 0 {
		metrics.GuardrailDroppedTotal.Add(float64(out.Dropped))
	}
	outcome := OutcomeOK
	if out.Fallback {
		metrics.GuardrailFallbackTotal.Inc()
		outcome = OutcomeFallback
	}
	metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	log.Info("Search completed",
		zap.String("outcome", outcome),
		zap.Int("results", len(out.Results)),
		zap.Int("dropped", out.Dropped),
	)
	return out, nil
}

func (s *Service) run(ctx context.Context, req request.Request) (Outcome, error) {
	p := prompt.Build(req, s.catalog.Items())

	completion, err := s.rec.Complete(ctx, p.Instructions, p.Context)
	if err != nil {
		return Outcome{}, fmt.Errorf("recommend: %w", err)
	}

	candidates, err := response.Parse(completion.Text)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse recommendations: %w", err)
	}

	res := guardrail.Enforce(candidates, s.catalog)
	return Outcome{Results: res.Recommendations, Dropped: res.Dropped, Fallback: res.Fallback}, nil
}

func (s *Service) finish(log *zap.Logger, outcome string, err error) {
	metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeValidation {
		log.Info("Search rejected", zap.String("outcome", outcome), zap.Error(err))
		return
	}
	log.Error("Search failed", zap.String("outcome", outcome), zap.Error(err))
}

func classify(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, domain.ErrBudgetExceeded):
		return OutcomeBudget
	case errors.Is(err, domain.ErrRecommenderFailed):
		return OutcomeRecommender
	case errors.Is(err, domain.ErrParse):
		return OutcomeParse
	case errors.Is(err, domain.ErrSchema):
		return OutcomeSchema
	default:
		return OutcomeUnexpected
	}
}
