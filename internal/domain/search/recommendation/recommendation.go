// Package recommendation defines a single explained search result.
package recommendation

// FallbackReason explains the substitute returned when nothing survives the guardrail.
const FallbackReason = "No exact match, showing first item as fallback"

// Recommendation pairs a catalog item id with the reason it was proposed.
type Recommendation struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}
