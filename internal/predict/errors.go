package predict

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers every failure to complete the HTTP exchange:
	// dial errors, cancellation, timeouts and truncated bodies.
	ErrTransport = errors.New("predict: transport failure")

	// ErrMalformed indicates a reply that is not JSON or carries neither a
	// prediction nor an error.
	ErrMalformed = errors.New("predict: malformed reply")
)

// StatusError wraps ErrMalformed with the HTTP status of a reply whose body
// could not be decoded.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v (status %d)", ErrMalformed, e.Code)
	}
	return fmt.Sprintf("%v (status %d): %s", ErrMalformed, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrMalformed
}
