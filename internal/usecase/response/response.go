// Package response turns raw reasoning service output into typed candidates.
// It checks structure only; catalog membership belongs to the guardrail.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/search/recommendation"
)

// Parse decodes raw as JSON and validates it against {"results":[{"id":int,"reason":string}]}.
// Malformed JSON fails with domain.ErrParse, a wrong shape with domain.ErrSchema.
func Parse(raw string) ([]recommendation.Recommendation, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty output", domain.ErrParse)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", domain.ErrParse)
	}

	return validate(doc)
}

func validate(doc any) ([]recommendation.Recommendation, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, schemaErr("top level must be an object, got %s", kind(doc))
	}
	rawResults, ok := obj["results"]
	if !ok {
		return nil, schemaErr("missing results")
	}
	list, ok := rawResults.([]any)
	if !ok {
		return nil, schemaErr("results must be an array, got %s", kind(rawResults))
	}

	out := make([]recommendation.Recommendation, 0, len(list))
	for i, el := range list {
		rec, err := element(el)
		if err != nil {
			return nil, fmt.Errorf("results[%d]: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func element(el any) (recommendation.Recommendation, error) {
	obj, ok := el.(map[string]any)
	if !ok {
		return recommendation.Recommendation{}, schemaErr("element must be an object, got %s", kind(el))
	}

	num, ok := obj["id"].(json.Number)
	if !ok {
		return recommendation.Recommendation{}, schemaErr("id must be a number, got %s", kind(obj["id"]))
	}
	id, err := integer(num)
	if err != nil {
		return recommendation.Recommendation{}, err
	}

	reason, ok := obj["reason"].(string)
	if !ok {
		return recommendation.Recommendation{}, schemaErr("reason must be a string, got %s", kind(obj["reason"]))
	}

	return recommendation.Recommendation{ID: id, Reason: reason}, nil
}

// integer accepts integral numbers in int64 range, including forms like 2.0 or 2e0.
func integer(n json.Number) (int64, error) {
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, schemaErr("id must be an integer, got %s", n.String())
	}
	return int64(f), nil
}

func schemaErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrSchema, fmt.Sprintf(format, args...))
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
