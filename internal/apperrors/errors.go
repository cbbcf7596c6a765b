// Package apperrors defines the error taxonomy shared by services and the
// HTTP boundary. Services wrap these sentinels with context; the boundary
// maps them to status codes in one place.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized is returned for a missing or unknown credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when a valid credential lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the operation target does not exist
	ErrNotFound = errors.New("not found")

	// ErrRateLimitExceeded is returned when admission is throttled
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput is returned for request payload violations
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream is returned when the classifier or the store is unavailable
	ErrUpstream = errors.New("upstream failure")

	// ErrDuplicateToken is returned by stores when a token value already exists.
	// It is not part of the HTTP taxonomy and maps to a 500 if it ever escapes.
	ErrDuplicateToken = errors.New("token already exists")
)

// Machine-readable reasons carried in error responses
const (
	ReasonUnauthorized      = "unauthorized"
	ReasonForbidden         = "forbidden"
	ReasonNotFound          = "not_found"
	ReasonRateLimitExceeded = "rate_limit_exceeded"
	ReasonInvalidInput      = "invalid_input"
	ReasonUpstreamFailure   = "upstream_failure"
	ReasonInternal          = "internal_error"
)

type mapping struct {
	target error
	status int
	reason string
}

// Order matters only if an error wraps more than one sentinel.
var mappings = []mapping{
	{ErrUnauthorized, http.StatusUnauthorized, ReasonUnauthorized},
	{ErrForbidden, http.StatusForbidden, ReasonForbidden},
	{ErrNotFound, http.StatusNotFound, ReasonNotFound},
	{ErrRateLimitExceeded, http.StatusTooManyRequests, ReasonRateLimitExceeded},
	{ErrInvalidInput, http.StatusBadRequest, ReasonInvalidInput},
	{ErrUpstream, http.StatusInternalServerError, ReasonUpstreamFailure},
}

// Classify returns the HTTP status and reason for err.
// Errors outside the taxonomy map to 500 "internal_error".
func Classify(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, m.reason
		}
	}
	return http.StatusInternalServerError, ReasonInternal
}

// IsClientError reports whether err belongs to the taxonomy and maps to a 4xx
func IsClientError(err error) bool {
	status, _ := Classify(err)
	return status >= 400 && status < 500
}
