package trailsearch

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Use errors.Is() to check.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrServer             = errors.New("server error")
)

// APIError is a non-2xx response or a streamed error event.
type APIError struct {
	Status  int    // HTTP status; 200 for an error event inside a stream
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trailsearch: %s: %s", e.Code, e.Message)
}

// Unwrap maps the error onto a sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "dataset_unavailable":
		return ErrDatasetUnavailable
	case "rate_limited":
		return ErrRateLimited
	}
	switch e.Status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return ErrInvalidRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusServiceUnavailable:
		return ErrDatasetUnavailable
	}
	return ErrServer
}
