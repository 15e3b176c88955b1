package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a client-caused request problem.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCatalog signals a catalog that cannot back the service.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrRecommenderFailed signals a failed call to the reasoning service.
	ErrRecommenderFailed = errors.New("recommender failed")
	// ErrBudgetExceeded signals an exhausted recommender token budget.
	ErrBudgetExceeded = errors.New("recommender budget exceeded")
	// ErrParse signals recommender output that is not well-formed JSON.
	ErrParse = errors.New("recommender output is not valid JSON")
	// ErrSchema signals well-formed recommender output with the wrong shape.
	ErrSchema = errors.New("recommender output does not match schema")
	// ErrUnexpected signals a failure outside every known category.
	ErrUnexpected = errors.New("unexpected failure")
)

// ValidationKind classifies request validation failures.
type ValidationKind string

// Validation kinds.
const (
	KindType  ValidationKind = "type"
	KindRange ValidationKind = "range"
	KindTag   ValidationKind = "tag"
)

// ValidationError wraps ErrValidation with the kind and a client-safe message.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s error: %s", ErrValidation.Error(), e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error of the given kind.
func NewValidationError(kind ValidationKind, message string) error {
	return &ValidationError{Kind: kind, Message: message}
}
