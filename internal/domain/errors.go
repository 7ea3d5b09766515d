package domain

import (
	"errors"
	"fmt"
)

var (
	// Invocation errors
	ErrUsage = errors.New("usage error")
	ErrInput = errors.New("invalid input")

	// Review artifact errors
	ErrReviewNotFound = errors.New("review artifact not found")

	// Ledger errors
	ErrAuth            = errors.New("ledger rejected the session credential")
	ErrGateway         = errors.New("ledger request failed")
	ErrGatewayResponse = errors.New("unexpected ledger response")
	ErrSubmission      = errors.New("transaction submission failed")
)

// StatusError is returned by the ledger gateway for a non-success HTTP response.
// It unwraps to Kind, so callers match it with errors.Is against the sentinels above.
type StatusError struct {
	Kind       error
	Op         string
	StatusCode int
	Body       string
	// Truncated is set when Body holds only the first part of the response.
	Truncated bool
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s: status %d", e.Kind, e.Op, e.StatusCode)
	}
	if e.Truncated {
		return fmt.Sprintf("%s: %s: status %d %s [truncated to %d bytes]", e.Kind, e.Op, e.StatusCode, e.Body, len(e.Body))
	}
	return fmt.Sprintf("%s: %s: status %d %s", e.Kind, e.Op, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}
