package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced by the claim engine. Handlers translate these into
// HTTP responses; callers can switch on Code without parsing messages.
const (
	CodeValidation            = "validation_error"
	CodeIllegalTransition     = "illegal_transition"
	CodeUnauthorized          = "unauthorized"
	CodeGuardFailed           = "guard_failed"
	CodeIncompleteRequired    = "incomplete_required"
	CodeMissingRecommendation = "missing_recommendation"
	CodeDuplicateVote         = "duplicate_vote"
	CodeInvalidState          = "invalid_state"
	CodeQuorumNotMet          = "quorum_not_met"
	CodeInvalidConditions     = "invalid_conditions"
	CodeEmptyJustification    = "empty_justification"
	CodeMissingDocuments      = "missing_documents"
	CodeNotFound              = "not_found"
	CodeConflict              = "conflict"
	CodeStoreUnavailable      = "store_unavailable"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Newf(status int, code, format string, args ...interface{}) *Error {
	return &Error{Status: status, Code: code, Err: fmt.Errorf(format, args...)}
}

func NotFound(what string) *Error {
	return Newf(http.StatusNotFound, CodeNotFound, "%s not found", what)
}

// StoreUnavailable wraps an infrastructure failure. The caller may retry with
// backoff; the message never reaches clients verbatim.
func StoreUnavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, CodeStoreUnavailable, err)
}

// CodeOf extracts the engine error code, or "" for plain errors.
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// StatusOf returns the HTTP status for an error, defaulting to 500.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
