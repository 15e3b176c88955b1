// Package guardrail is the trust boundary between reasoning service output and the caller.
package guardrail

import (
	"github.com/kailas-cloud/scout/internal/domain/catalog"
	"github.com/kailas-cloud/scout/internal/domain/search/recommendation"
)

// Result is the filtered recommendation list plus what the filter did.
type Result struct {
	Recommendations []recommendation.Recommendation
	Dropped         int
	Fallback        bool
}

// Enforce keeps only candidates whose id exists in the catalog, in the order given.
// When nothing survives it returns the first catalog item with FallbackReason.
// Price and tag constraints are not re-checked. Never fails; a nil or empty
// catalog yields an empty result.
func Enforce(candidates []recommendation.Recommendation, idx *catalog.Index) Result {
	if idx == nil || idx.Len() == 0 {
		return Result{Recommendations: []recommendation.Recommendation{}, Dropped: len(candidates)}
	}

	kept := make([]recommendation.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		if idx.Contains(c.ID) {
			kept = append(kept, c)
		}
	}

	res := Result{Recommendations: kept, Dropped: len(candidates) - len(kept)}
	if len(kept) == 0 {
		res.Recommendations = []recommendation.Recommendation{{
			ID:     idx.First().ID,
			Reason: recommendation.FallbackReason,
		}}
		res.Fallback = true
	}
	return res
}
