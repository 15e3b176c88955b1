package request

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/catalog"
)

// Client-facing validation messages.
const (
	MsgBodyNotObject = "request body must be a JSON object"
	MsgQueryType     = "query must be a string"
	MsgPriceType     = "minPrice and maxPrice must be numbers"
	MsgPriceRange    = "Min price cannot exceed max price"
	MsgInvalidTags   = "Invalid tags selected"
)

// Request is a validated search request.
type Request struct {
	query        string
	minPrice     float64
	maxPrice     float64
	selectedTags []string
}

// New validates explicit parameters against the vocabulary.
func New(query string, minPrice, maxPrice float64, tags []string, vocab catalog.Vocabulary) (Request, error) {
	if math.IsNaN(minPrice) || math.IsNaN(maxPrice) {
		return Request{}, domain.NewValidationError(domain.KindType, MsgPriceType)
	}
	if minPrice > maxPrice {
		return Request{}, domain.NewValidationError(domain.KindRange, MsgPriceRange)
	}
	for _, t := range tags {
		if !vocab.Has(t) {
			return Request{}, domain.NewValidationError(domain.KindTag, MsgInvalidTags)
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return Request{
		query:        query,
		minPrice:     minPrice,
		maxPrice:     maxPrice,
		selectedTags: append([]string{}, tags...),
	}, nil
}

// Parse decodes an untyped JSON body, applies defaults and validates it.
// Defaults: query "", minPrice 0, maxPrice +Inf, selectedTags [].
func Parse(body []byte, vocab catalog.Vocabulary) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return Request{}, domain.NewValidationError(domain.KindType, MsgBodyNotObject)
	}

	query := ""
	if raw, ok := fields["query"]; ok {
		if err := json.Unmarshal(raw, &query); err != nil || isNull(raw) {
			return Request{}, domain.NewValidationError(domain.KindType, MsgQueryType)
		}
	}

	minPrice, minOK := priceField(fields, "minPrice", 0)
	maxPrice, maxOK := priceField(fields, "maxPrice", math.Inf(1))
	if !minOK || !maxOK {
		return Request{}, domain.NewValidationError(domain.KindType, MsgPriceType)
	}

	var tags []string
	if raw, ok := fields["selectedTags"]; ok {
		if isNull(raw) || json.Unmarshal(raw, &tags) != nil {
			return Request{}, domain.NewValidationError(domain.KindTag, MsgInvalidTags)
		}
	}

	return New(query, minPrice, maxPrice, tags, vocab)
}

// priceField reads a numeric field. Absent fields take def; anything but a JSON number fails.
func priceField(fields map[string]json.RawMessage, key string, def float64) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return def, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || isQuoted(raw) {
		return 0, false
	}
	v, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// isQuoted catches JSON strings, which json.Number would otherwise accept.
func isQuoted(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// Query returns the free-text travel query.
func (r *Request) Query() string { return r.query }

// MinPrice returns the lower price bound.
func (r *Request) MinPrice() float64 { return r.minPrice }

// MaxPrice returns the upper price bound (+Inf when unbounded).
func (r *Request) MaxPrice() float64 { return r.maxPrice }

// SelectedTags returns the requested tags in request order.
func (r *Request) SelectedTags() []string { return append([]string{}, r.selectedTags...) }
