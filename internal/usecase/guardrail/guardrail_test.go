package guardrail

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/scout/internal/domain/catalog"
	"github.com/kailas-cloud/scout/internal/domain/search/recommendation"
)

type rec = recommendation.Recommendation

func testIndex(t *testing.T) *catalog.Index {
	t.Helper()
	idx, err := catalog.New([]catalog.Item{
		{ID: 1, Tags: []string{"beach"}},
		{ID: 2, Tags: []string{"hiking"}},
		{ID: 3, Tags: []string{"history"}},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return idx
}

func fallback() []rec {
	return []rec{{ID: 1, Reason: recommendation.FallbackReason}}
}

func TestEnforce(t *testing.T) {
	tests := []struct {
		name         string
		candidates   []rec
		want         []rec
		wantDropped  int
		wantFallback bool
	}{
		{
			name:       "all valid kept in order",
			candidates: []rec{{ID: 3, Reason: "c"}, {ID: 1, Reason: "a"}},
			want:       []rec{{ID: 3, Reason: "c"}, {ID: 1, Reason: "a"}},
		},
		{
			name:        "invalid ids dropped, order preserved",
			candidates:  []rec{{ID: 999, Reason: "ghost"}, {ID: 2, Reason: "b"}, {ID: -1, Reason: "neg"}, {ID: 1, Reason: "a"}},
			want:        []rec{{ID: 2, Reason: "b"}, {ID: 1, Reason: "a"}},
			wantDropped: 2,
		},
		{
			name:         "all invalid falls back",
			candidates:   []rec{{ID: 999, Reason: "ghost"}},
			want:         fallback(),
			wantDropped:  1,
			wantFallback: true,
		},
		{
			name:         "empty falls back",
			candidates:   []rec{},
			want:         fallback(),
			wantFallback: true,
		},
		{
			name:         "nil falls back",
			candidates:   nil,
			want:         fallback(),
			wantFallback: true,
		},
		{
			name:       "duplicates are not collapsed",
			candidates: []rec{{ID: 2, Reason: "b"}, {ID: 2, Reason: "b again"}},
			want:       []rec{{ID: 2, Reason: "b"}, {ID: 2, Reason: "b again"}},
		},
	}
	idx := testIndex(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Enforce(tc.candidates, idx)
			if diff := cmp.Diff(tc.want, got.Recommendations); diff != "" {
				t.Errorf("recommendations mismatch (-want +got):\n%s", diff)
			}
			if got.Dropped != tc.wantDropped {
				t.Errorf("Dropped = %d, want %d", got.Dropped, tc.wantDropped)
			}
			if got.Fallback != tc.wantFallback {
				t.Errorf("Fallback = %v, want %v", got.Fallback, tc.wantFallback)
			}
		})
	}
}

func TestEnforce_Idempotent(t *testing.T) {
	idx := testIndex(t)
	valid := []rec{{ID: 2, Reason: "b"}, {ID: 3, Reason: "c"}}

	once := Enforce(valid, idx)
	twice := Enforce(once.Recommendations, idx)
	if diff := cmp.Diff(once.Recommendations, twice.Recommendations); diff != "" {
		t.Errorf("filtering a valid list changed it (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(valid, twice.Recommendations); diff != "" {
		t.Errorf("valid list not returned unchanged (-want +got):\n%s", diff)
	}
}

func TestEnforce_DoesNotRecheckTags(t *testing.T) {
	// The model picked a hiking trip for a beach request; membership is all that matters.
	got := Enforce([]rec{{ID: 2, Reason: "x"}}, testIndex(t))
	if diff := cmp.Diff([]rec{{ID: 2, Reason: "x"}}, got.Recommendations); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEnforce_NilCatalog(t *testing.T) {
	got := Enforce([]rec{{ID: 1, Reason: "a"}}, nil)
	if len(got.Recommendations) != 0 || got.Fallback {
		t.Errorf("expected empty result for nil catalog, got %+v", got)
	}
	if got.Recommendations == nil {
		t.Error("recommendations must be a non-nil slice")
	}
}

func TestEnforce_ZeroIndex(t *testing.T) {
	got := Enforce([]rec{{ID: 1, Reason: "a"}}, &catalog.Index{})
	if len(got.Recommendations) != 0 {
		t.Errorf("expected empty result for empty catalog, got %+v", got)
	}
}
