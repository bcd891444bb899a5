package transport

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks request descriptors rejected before any network call.
var ErrInvalidRequest = errors.New("transport: invalid request")

// HTTPError is returned when the backend answers outside the 2xx range.
// The response body is kept for diagnostics but never returned as a result.
type HTTPError struct {
	Status   int
	Method   string
	Endpoint string
	Body     []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// TransportError wraps a failure to build, send, read or decode a request.
type TransportError struct {
	Op  string // "build", "send", "read" or "decode"
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an *HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
