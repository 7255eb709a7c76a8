package source

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a single-record lookup matches nothing.
	ErrNotFound = errors.New("source: not found")

	// ErrMalformedResponse wraps bodies that do not decode into the expected shape.
	ErrMalformedResponse = errors.New("source: malformed response")

	// ErrUnknownBackend is returned by New for an unrecognised backend name.
	ErrUnknownBackend = errors.New("source: unknown backend")
)

// StatusError is a non-2xx response from a remote backend.
type StatusError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from a remote backend.
func IsNotFound(err error) bool {
	var e *StatusError
	if errors.As(err, &e) {
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
