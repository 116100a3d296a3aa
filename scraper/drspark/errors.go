package drspark

import "fmt"

// StatusError is a non-2xx HTTP response from the listing site. Snippet holds
// the first part of the response body for diagnostics.
type StatusError struct {
	URL     string
	Code    int
	Snippet string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d for %s", e.Code, e.URL)
}

// TransportError is a connection-level failure: DNS, refused connection,
// timeout, or an unreadable body.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// retryableStatus lists the response codes worth another GET attempt.
var retryableStatus = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}
