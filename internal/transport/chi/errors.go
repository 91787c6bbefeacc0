package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/logger"
)

// ErrorCode classifies an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeNotFound           ErrorCode = "not_found"
	CodeRequestTooLarge    ErrorCode = "request_too_large"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeDatasetUnavailable ErrorCode = "dataset_unavailable"
	CodeInternal           ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-stream error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func sentinelHandler(sentinel error, status int, code ErrorCode, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, message)
		return true
	}
}

// validationHandler reports the offending field; the reason is built from
// request input, never from internal state.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, ve.Field+" "+ve.Reason)
	return true
}

var errorHandlers = []errorHandler{
	validationHandler,
	sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed, "invalid query"),
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound, "trail not found"),
	sentinelHandler(domain.ErrPoolExhausted, http.StatusServiceUnavailable, CodeDatasetUnavailable,
		"trail database is busy"),
	sentinelHandler(domain.ErrDatasetUnavailable, http.StatusServiceUnavailable, CodeDatasetUnavailable,
		"trail database is unavailable"),
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
