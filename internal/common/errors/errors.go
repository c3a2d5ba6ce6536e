// Package errors provides standardized error handling for the
// evaluation and decision workflow.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Evaluation workflow errors
const (
	ErrCodeDuplicateEvaluation ErrorCode = "DUPLICATE_EVALUATION"
	ErrCodeInvalidRole         ErrorCode = "INVALID_ROLE"
	ErrCodePrematureDecision   ErrorCode = "PREMATURE_DECISION"
	ErrCodeMissingDecision     ErrorCode = "MISSING_DECISION"
	ErrCodeMissingReason       ErrorCode = "MISSING_REASON"
	ErrCodeAlreadyDecided      ErrorCode = "ALREADY_DECIDED"

	ErrCodeInvalidRating    ErrorCode = "INVALID_RATING"
	ErrCodeRubricIncomplete ErrorCode = "RUBRIC_INCOMPLETE"
	ErrCodeEmptyJuryRoster  ErrorCode = "EMPTY_JURY_ROSTER"

	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeValidationFailed    ErrorCode = "APPLICATION_VALIDATION_FAILED"

	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeClientBlocked     ErrorCode = "CLIENT_BLOCKED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeDocumentGenerationFailed ErrorCode = "DOCUMENT_GENERATION_FAILED"
	ErrCodeAuditIndexFailed         ErrorCode = "AUDIT_INDEX_FAILED"
	ErrCodeIdentityResolutionFailed ErrorCode = "IDENTITY_RESOLUTION_FAILED"
	ErrCodeRosterLookupFailed       ErrorCode = "ROSTER_LOOKUP_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsCode reports whether err is a StandardError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// CodeOf extracts the error code from err, or INTERNAL_ERROR when err is
// not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// ==========================
// 2. Error Constructors
// ==========================

// NewDuplicateEvaluationError signals a second evaluation for the same
// (application, evaluator) pair. Never retryable; the first record wins.
func NewDuplicateEvaluationError(applicationRef, evaluatorID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateEvaluation,
		Message:   "Evaluation already exists for this evaluator",
		Details:   fmt.Sprintf("applicationRef: %s, evaluatorId: %s", applicationRef, evaluatorID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRoleError rejects a scoring submission from a non-jury role.
func NewInvalidRoleError(role string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRole,
		Message:   "Role is not allowed to submit evaluations",
		Details:   fmt.Sprintf("role: %s", role),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPrematureDecisionError rejects a presidential decision before every
// active juror has evaluated the application.
func NewPrematureDecisionError(evaluated, total int) *StandardError {
	return &StandardError{
		Code:      ErrCodePrematureDecision,
		Message:   "All jury members must evaluate before a decision",
		Details:   fmt.Sprintf("evaluated: %d/%d", evaluated, total),
		Retryable: false,
		Metadata: map[string]interface{}{
			"evaluatedCount": evaluated,
			"totalJuryCount": total,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingDecisionError rejects a presidential submission without a
// decision value.
func NewMissingDecisionError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingDecision,
		Message:   "A decision is required from the jury president",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingReasonError rejects a rejection decision without a reason.
func NewMissingReasonError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingReason,
		Message:   "A rejection requires a non-empty reason",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadyDecidedError rejects any further submission once the
// application reached a terminal status.
func NewAlreadyDecidedError(applicationRef, status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadyDecided,
		Message:   "Application has already been decided",
		Details:   fmt.Sprintf("applicationRef: %s, status: %s", applicationRef, status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRatingError rejects a rating outside the 0-5 integer range.
func NewInvalidRatingError(criterion string, rating int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRating,
		Message:   "Rating must be an integer between 0 and 5",
		Details:   fmt.Sprintf("criterion: %s, rating: %d", criterion, rating),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRubricIncompleteError rejects a submission missing rubric criteria.
func NewRubricIncompleteError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRubricIncomplete,
		Message:   "Every rubric criterion must be rated",
		Details:   fmt.Sprintf("missing: %v", missing),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyJuryRosterError signals a configuration problem: no active
// jurors means no quorum can ever be computed.
func NewEmptyJuryRosterError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyJuryRoster,
		Message:   "No active jury members configured",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationNotFoundError creates a non-retryable lookup error.
func NewApplicationNotFoundError(ref string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("applicationRef: %s", ref),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable input validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submission failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitExceededError carries the retry guidance for a 429.
func NewRateLimitExceededError(endpoint string, retryAfter time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimitExceeded,
		Message:   "Too many requests",
		Details:   fmt.Sprintf("endpoint: %s", endpoint),
		Retryable: true,
		Metadata: map[string]interface{}{
			"retryAfterSeconds": int(retryAfter.Seconds()),
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewClientBlockedError denies a deny-listed or escalated client.
func NewClientBlockedError(clientID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClientBlocked,
		Message:   "Client is blocked",
		Details:   fmt.Sprintf("clientId: %s", clientID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable persistence error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError reports an unreachable backing store.
func NewDatabaseConnectionFailedError(target string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection failed",
		Details:   fmt.Sprintf("target: %s, error: %s", target, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentGenerationFailedError wraps a failed attestation request.
func NewDocumentGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentGenerationFailed,
		Message:   "Document generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditIndexFailedError wraps a failed audit trail write.
func NewAuditIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditIndexFailed,
		Message:   "Audit indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRosterLookupFailedError wraps a failed jury roster read.
func NewRosterLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRosterLookupFailed,
		Message:   "Jury roster lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError wraps a downstream notification
// failure. These are logged, never propagated to the caller.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityResolutionFailedError reports a missing or unresolvable
// caller identity.
func NewIdentityResolutionFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityResolutionFailed,
		Message:   "Could not resolve evaluator identity",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
