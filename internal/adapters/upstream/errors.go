package upstream

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by the client wraps exactly one of the
// first three so callers can tell network, HTTP and payload problems apart.
var (
	ErrTransport     = errors.New("upstream transport failure")
	ErrStatus        = errors.New("upstream returned an error status")
	ErrMalformed     = errors.New("upstream returned malformed data")
	ErrTooManyPages  = errors.New("too many result pages")
	ErrInvalidConfig = errors.New("invalid upstream client config")
	ErrInvalidQuery  = errors.New("invalid upstream query")
)

// Error kind labels used for metrics and logs.
const (
	KindTransport = "transport"
	KindStatus    = "status"
	KindMalformed = "malformed"
)

// StatusError carries a non-2xx response.
type StatusError struct {
	Code     int
	Endpoint string
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream: %s: status %d", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("upstream: %s: status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Unwrap makes errors.Is(err, ErrStatus) true.
func (e *StatusError) Unwrap() error { return ErrStatus }

// Kind classifies err as one of the Kind* labels, or "" when it is not an
// upstream failure.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrStatus):
		return KindStatus
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return ""
	}
}
