package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/metrics"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

// Recommender is the reasoning service client over the OpenAI chat completions API.
type Recommender struct {
	client      *openai.Client
	model       string
	temperature float32
	jsonMode    bool
	timeout     time.Duration
	maxRetries  int
	backoff     time.Duration
	logger      *zap.Logger
}

var (
	_ domain.Recommender   = (*Recommender)(nil)
	_ domain.HealthChecker = (*Recommender)(nil)
)

// Config holds the reasoning service settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	JSONMode    bool
	// Timeout bounds each attempt. Zero disables the per-attempt deadline.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a transient failure.
	MaxRetries   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// NewRecommender creates a chat completions client.
func NewRecommender(cfg *Config) *Recommender {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recommender{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		jsonMode:    cfg.JSONMode,
		timeout:     cfg.Timeout,
		maxRetries:  max(cfg.MaxRetries, 0),
		backoff:     cfg.RetryBackoff,
		logger:      logger,
	}
}

// Complete sends instructions as the system message and input as the user message.
// Transient failures (429, 5xx, attempt timeout) are retried up to MaxRetries times.
func (r *Recommender) Complete(ctx context.Context, instructions, input string) (domain.Completion, error) {
	req := r.request(instructions, input)

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecommenderRetriesTotal.WithLabelValues(r.model).Inc()
			r.logger.Warn("Retrying recommender request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			if err := sleep(ctx, r.backoff*time.Duration(attempt)); err != nil {
				return domain.Completion{}, fmt.Errorf("%w: %w", domain.ErrRecommenderFailed, err)
			}
		}

		res, err := r.attempt(ctx, req)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil || !transient(err) {
			break
		}
	}
	return domain.Completion{}, lastErr
}

func (r *Recommender) request(instructions, input string) openai.ChatCompletionRequest {
	temperature := r.temperature
	if temperature == 0 {
		// The field is omitempty; a literal zero would fall back to the API default.
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
	}
	if r.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

func (r *Recommender) attempt(ctx context.Context, req openai.ChatCompletionRequest) (domain.Completion, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.RecommenderRequestsTotal.WithLabelValues(r.model, "error").Inc()
		metrics.RecommenderErrorsTotal.WithLabelValues(r.model, errorType(err)).Inc()
		return domain.Completion{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.RecommenderRequestsTotal.WithLabelValues(r.model, "error").Inc()
		metrics.RecommenderErrorsTotal.WithLabelValues(r.model, "empty_response").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrRecommenderFailed)
	}

	metrics.RecommenderRequestsTotal.WithLabelValues(r.model, "success").Inc()
	metrics.RecommenderRequestDuration.WithLabelValues(r.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.RecommenderTokensTotal.WithLabelValues(r.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.RecommenderTokensTotal.WithLabelValues(r.model, "completion").Add(float64(resp.Usage.CompletionTokens))
		metrics.RecommenderTokensTotal.WithLabelValues(r.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (r *Recommender) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// transient reports whether a failed attempt is worth repeating.
func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	status := statusCode(err)
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func errorType(err error) string {
	switch status := statusCode(err); {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status > 0:
		return "client_error"
	default:
		return "transport_error"
	}
}

// parseAPIError extracts a readable error from the API response.
// Every error wraps domain.ErrRecommenderFailed and keeps the original cause in the chain.
func parseAPIError(err error) error {
	wrap := domain.ErrRecommenderFailed

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("completion API error %d: %s: %w: %w",
			reqErr.HTTPStatusCode, detail, wrap, err)
	}

	return fmt.Errorf("completion request failed: %w: %w", wrap, err)
}

// extractDetail reads a "detail" field from JSON error bodies of OpenAI-compatible gateways.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
