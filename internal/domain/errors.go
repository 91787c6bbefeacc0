package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a rejected inbound search request.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrRateLimited signals a rate limit hit at the LLM provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrLLMTimeout signals an LLM call that exceeded its deadline.
	ErrLLMTimeout = errors.New("llm timeout")
	// ErrLLMUnavailable signals a non-transient LLM provider failure.
	ErrLLMUnavailable = errors.New("llm unavailable")
	// ErrMalformedToolArgs signals tool call arguments that could not be decoded.
	ErrMalformedToolArgs = errors.New("malformed tool arguments")

	// ErrPoolExhausted signals that no dataset connection became free in time.
	ErrPoolExhausted = errors.New("dataset pool exhausted")
	// ErrDatasetUnavailable signals a failed dataset query.
	ErrDatasetUnavailable = errors.New("dataset unavailable")
)

// IsTransient reports whether err is worth retrying against the LLM provider.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrLLMTimeout)
}

// IsDataset reports whether err originates from the trail dataset.
func IsDataset(err error) bool {
	return errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrDatasetUnavailable)
}

// ValidationError wraps ErrInvalidQuery with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidQuery.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidQuery }

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
