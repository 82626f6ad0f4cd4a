package client

import "fmt"

// TransportError wraps a connection-level failure (DNS, refused, timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Body holds the raw response body for
// diagnostics; it is not interpreted further.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

// DecodeError is a malformed response body on an otherwise successful call.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
