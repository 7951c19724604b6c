package jikan

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	// ErrRateLimitExceeded indicates the upstream kept answering 429 past the retry budget.
	ErrRateLimitExceeded = errors.New("jikan: rate limit exceeded")

	// ErrTransport indicates a network failure, a non-2xx status or an undecodable body.
	ErrTransport = errors.New("jikan: transport error")

	// ErrIncompleteResource indicates a composite record could not be fully assembled.
	ErrIncompleteResource = errors.New("jikan: incomplete resource")

	// ErrInvalidQuery indicates query arguments were rejected before any upstream call.
	ErrInvalidQuery = errors.New("jikan: invalid query")

	// ErrInvalidConfig indicates Config.Validate failed.
	ErrInvalidConfig = errors.New("jikan: invalid config")

	// ErrMissingDetails indicates the details endpoint returned no record.
	ErrMissingDetails = errors.New("jikan: details not found")
)

// RateLimitError reports that the upstream refused service until the
// attempt budget ran out.
type RateLimitError struct {
	// URL is the request that was throttled.
	URL string

	// Attempts is the number of attempts made.
	Attempts int
}

// Error returns the error message.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("jikan: rate limit exceeded after %d attempts: %s", e.Attempts, e.URL)
}

// Is reports whether this error matches the target.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// TransportError reports a request that failed for reasons other than throttling.
type TransportError struct {
	// URL is the failed request.
	URL string

	// StatusCode is the last HTTP status received, or 0 if none.
	StatusCode int

	// Attempts is the number of attempts made.
	Attempts int

	// Cause is the underlying error if any.
	Cause error
}

// Error returns the error message.
func (e *TransportError) Error() string {
	msg := fmt.Sprintf("jikan: transport error after %d attempts: %s", e.Attempts, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// IncompleteResourceError reports which part of a composite record failed.
type IncompleteResourceError struct {
	// ID is the anime id.
	ID int

	// Part is one of "details", "characters" or "staff".
	Part string

	// Cause is the underlying error if any.
	Cause error
}

// Error returns the error message.
func (e *IncompleteResourceError) Error() string {
	return fmt.Sprintf("jikan: incomplete anime %d: %s: %v", e.ID, e.Part, e.Cause)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *IncompleteResourceError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *IncompleteResourceError) Is(target error) bool {
	return target == ErrIncompleteResource
}

// QueryError reports an argument rejected before any upstream call.
type QueryError struct {
	// Kind is the query kind, e.g. "search".
	Kind string

	// Field names the rejected argument.
	Field string

	// Reason explains the rejection.
	Reason string
}

// Error returns the error message.
func (e *QueryError) Error() string {
	return fmt.Sprintf("jikan: invalid %s query: %s %s", e.Kind, e.Field, e.Reason)
}

// Is reports whether this error matches the target.
func (e *QueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}
