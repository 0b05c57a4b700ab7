// Package apperr implements the Expected/Unexpected error taxonomy: Expected
// errors are client-caused and carry a safe message plus an internal reason;
// Unexpected errors are logged in full and surfaced as a generic 500.
package apperr

import (
	"fmt"
	"net/http"
)

// Expected is a client-visible error: a bad request, a 404, a 403, and so on.
// Message is safe to return to the caller; Reason is for the logs only.
type Expected struct {
	StatusCode int
	Message    string
	Reason     string
	Metadata   map[string]any
}

func (e *Expected) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Reason)
	}
	return e.Message
}

// NewExpected builds an Expected error, defaulting Reason to Message when unset.
func NewExpected(status int, message string, reason string) *Expected {
	if reason == "" {
		reason = message
	}
	return &Expected{StatusCode: status, Message: message, Reason: reason}
}

// WithMetadata attaches client-visible metadata to an Expected error.
func (e *Expected) WithMetadata(metadata map[string]any) *Expected {
	e.Metadata = metadata
	return e
}

func NotFound(message string) *Expected {
	return NewExpected(http.StatusNotFound, message, "not found")
}

func Forbidden(message string) *Expected {
	return NewExpected(http.StatusForbidden, message, message)
}

func Unauthorized(message string) *Expected {
	return NewExpected(http.StatusUnauthorized, message, message)
}

func BadRequest(message string) *Expected {
	return NewExpected(http.StatusBadRequest, message, message)
}

// Unexpected wraps a lower-level fault (DB, network, codec) that should never
// leak detail to the caller. The chain is preserved for logging via errors.Unwrap.
type Unexpected struct {
	Context string
	Err     error
}

func (e *Unexpected) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %v", e.Context, e.Err)
	}
	return e.Err.Error()
}

func (e *Unexpected) Unwrap() error { return e.Err }

// Wrap annotates err as Unexpected with the given context, unless it is
// already an *Expected or *Unexpected, in which case it passes through.
func Wrap(context string, err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *Expected, *Unexpected:
		return err
	default:
		return &Unexpected{Context: context, Err: err}
	}
}
