package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies governance errors by how the executor and callers
// must react to them. Only KindVendorUnavailable triggers fallback.
type Kind string

const (
	// KindVendorUnavailable covers transport failures, 5xx responses and
	// timeouts. Retried via fallback; surfaced only when every vendor fails.
	KindVendorUnavailable Kind = "vendor_unavailable"

	// KindUnexpectedResponse means the vendor returned a payload the
	// client cannot normalize. Never retried.
	KindUnexpectedResponse Kind = "unexpected_response_shape"

	// KindQuotaExceeded means the request was denied before any vendor
	// spend. Carries the caller's remaining allowance.
	KindQuotaExceeded Kind = "quota_exceeded"

	// KindConfiguration covers missing credentials and invalid config.
	// Fatal at startup, never raised at request time.
	KindConfiguration Kind = "configuration_error"

	// KindCacheUnavailable is treated as a cache miss and never fails
	// a request; it exists for logging only.
	KindCacheUnavailable Kind = "cache_unavailable"
)

// QuotaRemaining is attached to quota denials so callers can explain
// the denial to the end user.
type QuotaRemaining struct {
	Cost   float64 `json:"remaining_cost"`
	Tokens int     `json:"remaining_tokens"`
}

// Error is the typed error carried across the governance subsystem.
type Error struct {
	Kind      Kind
	Message   string
	Remaining *QuotaRemaining
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Friendly returns a non-technical message suitable for end users.
// The kind stays available for logging and telemetry.
func (e *Error) Friendly() string {
	switch e.Kind {
	case KindQuotaExceeded:
		return "You've reached your daily AI usage limit. Your allowance resets at midnight."
	case KindVendorUnavailable:
		return "The AI service is temporarily unavailable. Please try again in a moment."
	default:
		return "Something went wrong processing your request. Please try again."
	}
}

// NewError builds a typed governance error wrapping an underlying cause.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// QuotaError builds a quota denial carrying the remaining allowance.
func QuotaError(message string, remaining QuotaRemaining) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: message, Remaining: &remaining}
}

// IsKind reports whether err is a governance error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}

// APIError is the JSON error body written at the HTTP boundary.
type APIError struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Remaining *QuotaRemaining `json:"remaining,omitempty"`
}

// WriteError writes a governance error as JSON, choosing the status code
// from the error kind and the friendly message for the body.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := ErrorDetail{Message: "internal error", Type: "server_error"}

	var ge *Error
	if errors.As(err, &ge) {
		detail.Message = ge.Friendly()
		detail.Type = string(ge.Kind)
		detail.Remaining = ge.Remaining
		switch ge.Kind {
		case KindQuotaExceeded:
			status = http.StatusTooManyRequests
		case KindVendorUnavailable:
			status = http.StatusServiceUnavailable
		case KindUnexpectedResponse:
			status = http.StatusBadGateway
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Error: detail})
}

// WriteBadRequest writes a plain 400 with a caller-facing message.
func WriteBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(APIError{Error: ErrorDetail{
		Message: message,
		Type:    "invalid_request_error",
	}})
}
