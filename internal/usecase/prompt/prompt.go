// Package prompt renders the payload sent to the reasoning service.
package prompt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/scout/internal/domain/catalog"
	"github.com/kailas-cloud/scout/internal/domain/search/request"
)

// Instructions is the fixed policy statement. It does not depend on the request.
const Instructions = `You are a travel recommendation assistant.

You MUST:
- Only return items from the provided inventory.
- Never invent destinations.
- Only return IDs that exist in the inventory.
- Respect min/max price and selected tags.
- If nothing matches, return empty results.

Return response in this JSON format:
{
  "results": [
    { "id": number, "reason": "short explanation" }
  ]
}
`

// Prompt is the two-part payload: fixed instructions plus per-request context.
type Prompt struct {
	Instructions string
	Context      string
}

// Build renders the request constraints and the full catalog.
// Output is deterministic for a given request and item list.
func Build(req request.Request, items []catalog.Item) Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "User query: %s\n", strconv.Quote(req.Query()))
	fmt.Fprintf(&b, "Min price: %s, Max price: %s\n", formatPrice(req.MinPrice()), formatPrice(req.MaxPrice()))
	fmt.Fprintf(&b, "Selected tags: %s\n", mustJSON(req.SelectedTags()))
	fmt.Fprintf(&b, "\nInventory: %s\n", mustJSON(items))

	return Prompt{Instructions: Instructions, Context: b.String()}
}

func formatPrice(v float64) string {
	if math.IsInf(v, 1) {
		return "unbounded"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// mustJSON marshals values that are always encodable (strings, catalog items with finite prices).
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("prompt: marshal %T: %v", v, err))
	}
	return string(data)
}
