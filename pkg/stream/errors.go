package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBody is returned when the completion service answers without a
	// streamable body.
	ErrNoBody = errors.New("response has no streamable body")

	// ErrInFlight is returned when a stream is already running for the
	// session.
	ErrInFlight = errors.New("a response is already streaming for this session")
)

// StatusError reports a non-success HTTP status from the completion service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion service returned status %d: %s", e.StatusCode, e.Body)
}
