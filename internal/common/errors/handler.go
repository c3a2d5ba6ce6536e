// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler maps workflow errors onto HTTP responses at the
// transport boundary.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HTTPStatus returns the HTTP status code for an error code.
// Concurrency/ordering conflicts are 409-class so clients can correct
// and resubmit; rate limiting is 429 with retry guidance.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeDuplicateEvaluation, ErrCodePrematureDecision, ErrCodeAlreadyDecided:
		return http.StatusConflict
	case ErrCodeInvalidRole, ErrCodeClientBlocked:
		return http.StatusForbidden
	case ErrCodeMissingDecision, ErrCodeMissingReason, ErrCodeInvalidRating,
		ErrCodeRubricIncomplete, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeEmptyJuryRoster:
		return http.StatusUnprocessableEntity
	case ErrCodeIdentityResolutionFailed:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse is the wire shape of an error payload.
type errorResponse struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

// WriteError normalizes err and writes the JSON error response.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, err error) {
	stdErr := h.normalizeError(err)
	status := HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"message":   stdErr.Message,
			"details":   stdErr.Details,
			"retryable": stdErr.Retryable,
		})
	} else {
		h.logger.Warn("request rejected", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
			"status":    status,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Timestamp: stdErr.Timestamp,
	})
}

// normalizeError ensures we always have a StandardError.
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewInternalError(err)
}
