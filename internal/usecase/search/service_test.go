package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/catalog"
	"github.com/kailas-cloud/scout/internal/domain/search/recommendation"
	"github.com/kailas-cloud/scout/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	goleak.VerifyTestMain(m)
}

// --- Mocks ---

type mockRecommender struct {
	text      string
	err       error
	panicWith any
	calls     int
	lastInstr string
	lastInput string
}

func (m *mockRecommender) Complete(_ context.Context, instructions, input string) (domain.Completion, error) {
	m.calls++
	m.lastInstr = instructions
	m.lastInput = input
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return domain.Completion{Text: m.text}, m.err
}

func testCatalog(t *testing.T) *catalog.Index {
	t.Helper()
	idx, err := catalog.New([]catalog.Item{
		{ID: 1, Title: "Ella Rock hike", Price: 40, Tags: []string{"hiking", "nature", "view"}},
		{ID: 2, Title: "Mirissa beach day", Price: 80, Tags: []string{"beach", "surfing"}},
		{ID: 3, Title: "Sigiriya fortress", Price: 120, Tags: []string{"history", "climbing"}},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return idx
}

// --- Tests ---

func TestSearch_ValidationSkipsRecommender(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind domain.ValidationKind
		msg  string
	}{
		{"bad price type", `{"minPrice":"10"}`, domain.KindType, "minPrice and maxPrice must be numbers"},
		{"inverted range", `{"minPrice":100,"maxPrice":50}`, domain.KindRange, "Min price cannot exceed max price"},
		{"unknown tag", `{"selectedTags":["skiing"]}`, domain.KindTag, "Invalid tags selected"},
		{"not an object", `[1,2]`, domain.KindType, "request body must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecommender{}
			svc := New(testCatalog(t), rec, zap.NewNop())

			_, err := svc.Search(context.Background(), []byte(tt.body))

			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *domain.ValidationError, got %v", err)
			}
			if vErr.Kind != tt.kind || vErr.Message != tt.msg {
				t.Errorf("got %s %q, want %s %q", vErr.Kind, vErr.Message, tt.kind, tt.msg)
			}
			if rec.calls != 0 {
				t.Errorf("recommender must not be called on invalid input, got %d calls", rec.calls)
			}
		})
	}
}

func TestSearch_Results(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		want     []recommendation.Recommendation
		fallback bool
		dropped  int
	}{
		{
			name:  "in-catalog result passes through",
			reply: `{"results":[{"id":2,"reason":"Beach and surf"}]}`,
			want:  []recommendation.Recommendation{{ID: 2, Reason: "Beach and surf"}},
		},
		{
			name:     "hallucinated id falls back to first item",
			reply:    `{"results":[{"id":999,"reason":"made up"}]}`,
			want:     []recommendation.Recommendation{{ID: 1, Reason: recommendation.FallbackReason}},
			fallback: true,
			dropped:  1,
		},
		{
			name:     "empty results fall back",
			reply:    `{"results":[]}`,
			want:     []recommendation.Recommendation{{ID: 1, Reason: recommendation.FallbackReason}},
			fallback: true,
		},
		{
			name:  "order kept and unknown ids dropped",
			reply: `{"results":[{"id":3,"reason":"a"},{"id":42,"reason":"b"},{"id":1,"reason":"c"}]}`,
			want: []recommendation.Recommendation{
				{ID: 3, Reason: "a"},
				{ID: 1, Reason: "c"},
			},
			dropped: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(testCatalog(t), &mockRecommender{text: tt.reply}, zap.NewNop())

			out, err := svc.Search(context.Background(), []byte(`{"query":"beach","selectedTags":["beach"]}`))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, out.Results); diff != "" {
				t.Errorf("results mismatch (-want +got):\n%s", diff)
			}
			if out.Fallback != tt.fallback {
				t.Errorf("Fallback = %v, want %v", out.Fallback, tt.fallback)
			}
			if out.Dropped != tt.dropped {
				t.Errorf("Dropped = %d, want %d", out.Dropped, tt.dropped)
			}
		})
	}
}

func TestSearch_PromptCarriesRequestAndCatalog(t *testing.T) {
	rec := &mockRecommender{text: `{"results":[]}`}
	svc := New(testCatalog(t), rec, zap.NewNop())

	body := `{"query":"quiet hills","minPrice":10,"maxPrice":90,"selectedTags":["hiking"]}`
	if _, err := svc.Search(context.Background(), []byte(body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.calls != 1 {
		t.Fatalf("expected exactly one recommender call, got %d", rec.calls)
	}
	if rec.lastInstr == "" {
		t.Error("instructions must not be empty")
	}
	for _, want := range []string{`"quiet hills"`, "Min price: 10, Max price: 90", `["hiking"]`, "Sigiriya fortress"} {
		if !strings.Contains(rec.lastInput, want) {
			t.Errorf("prompt context missing %q:\n%s", want, rec.lastInput)
		}
	}
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		rec     *mockRecommender
		wantErr error
		outcome string
	}{
		{"malformed reply", &mockRecommender{text: "not json at all"}, domain.ErrParse, OutcomeParse},
		{"empty reply", &mockRecommender{text: ""}, domain.ErrParse, OutcomeParse},
		{"wrong shape", &mockRecommender{text: `{"results":{"id":1}}`}, domain.ErrSchema, OutcomeSchema},
		{"recommender down", &mockRecommender{err: domain.ErrRecommenderFailed}, domain.ErrRecommenderFailed, OutcomeRecommender},
		{"budget exhausted", &mockRecommender{err: domain.ErrBudgetExceeded}, domain.ErrBudgetExceeded, OutcomeBudget},
		{"panic downstream", &mockRecommender{panicWith: "boom"}, domain.ErrUnexpected, OutcomeUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.SearchRequestsTotal.WithLabelValues(tt.outcome)
			before := testutil.ToFloat64(counter)

			svc := New(testCatalog(t), tt.rec, zap.NewNop())
			out, err := svc.Search(context.Background(), []byte(`{}`))

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if errors.Is(err, domain.ErrValidation) {
				t.Errorf("pipeline failures must not look like validation errors: %v", err)
			}
			if out.Results != nil {
				t.Errorf("expected no results on failure, got %v", out.Results)
			}
			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("outcome %q counted %v times, want 1", tt.outcome, got)
			}
		})
	}
}

func TestSearch_GuardrailMetrics(t *testing.T) {
	dropped := testutil.ToFloat64(metrics.GuardrailDroppedTotal)
	fallback := testutil.ToFloat64(metrics.GuardrailFallbackTotal)

	svc := New(testCatalog(t), &mockRecommender{text: `{"results":[{"id":7,"reason":"x"},{"id":8,"reason":"y"}]}`}, zap.NewNop())
	if _, err := svc.Search(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(metrics.GuardrailDroppedTotal) - dropped; got != 2 {
		t.Errorf("dropped delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.GuardrailFallbackTotal) - fallback; got != 1 {
		t.Errorf("fallback delta = %v, want 1", got)
	}
}

func TestService_Vocabulary(t *testing.T) {
	svc := New(testCatalog(t), &mockRecommender{}, nil)
	want := []string{"beach", "climbing", "hiking", "history", "nature", "surfing", "view"}
	if diff := cmp.Diff(want, svc.Vocabulary().Tags()); diff != "" {
		t.Errorf("vocabulary mismatch (-want +got):\n%s", diff)
	}
}
